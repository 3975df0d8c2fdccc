// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Car Profile - these keys describe the recording vehicle and how its footage is laid out.
const (
	CarModel           = "car.model"
	CarPanoramicModels = "car.panoramic_models"
)

// Crop Regions - normalized "x,y,w,h" regions of the panoramic frame, one per virtual angle.
// The effective key is prefixed with the car model, e.g. "crop.lynkco07.front".
const (
	CropPrefix = "crop"
)

// Playback Engine - these keys tune the synchronized playback controller.
const (
	PlaybackSpeed              = "playback.speed"
	PlaybackProgressIntervalMs = "playback.progress_interval_ms"
	PlaybackCropRetries        = "playback.crop_retries"
	PlaybackCropRetryDelayMs   = "playback.crop_retry_delay_ms"
	PlaybackSeekTimeoutMs      = "playback.seek_timeout_ms"
	PlaybackStartSingle        = "playback.start_single"
	PlaybackSinglePosition     = "playback.single_position"
	PlaybackSeekStepMs         = "playback.seek_step_ms"
)

// Media Playback - these keys maintain the configuration of the external video player.
const (
	PlayerBinary       = "player.binary"
	PlayerScreenWidth  = "player.screen_width"
	PlayerScreenHeight = "player.screen_height"
)

// Recording Library - where dash-cam recordings are discovered.
const (
	LibraryPath   = "library.path"
	LibraryOpener = "library.opener"

	LibraryQuerySuggestions = "library.query_suggestions"
)

// History Tracking - these keys configure the persistence of playback progress.
const (
	HistorySaveProgress = "history.save_progress"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
