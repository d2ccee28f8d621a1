package config

// ProgramFileExt is the extension of serialized typed programs.
const ProgramFileExt = ".qir.yaml"

// ProgramFileExtensions are all recognized program file extensions.
var ProgramFileExtensions = []string{".qir.yaml", ".qir.yml", ".yaml", ".yml"}

// ConfigFileNames are looked up by FindConfig, in order.
var ConfigFileNames = []string{"qirlower.yaml", "qirlower.yml"}

// Capability profiles.
const (
	ProfileBase        = "base"
	ProfileAdaptive    = "adaptive"
	ProfileAdaptiveRIF = "adaptive_rif"
)

// Output formats understood by the emit stage.
const (
	FormatText      = "text"
	FormatYAML      = "yaml"
	FormatResources = "resources"
)

const (
	DefaultEntry             = "Main"
	DefaultProfile           = ProfileAdaptiveRIF
	DefaultFormat            = FormatText
	DefaultMaxLoopIterations = 1 << 20
	DefaultMaxCallDepth      = 512
	DefaultLogLevel          = "info"
	DefaultCacheSize         = 128
)
