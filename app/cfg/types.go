package cfg

type Cfg struct {
	// Storage configuration
	DBPath   string
	AudioDir string

	// Application configuration
	SourcesDir        string
	Port              string
	BaseUrl           string
	SchedulerInterval int
	APIKey            string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
