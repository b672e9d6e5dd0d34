package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Sensor errors
	ErrSensorUnavailable ErrorCode = "sensor_unavailable"
	ErrProducerFailure   ErrorCode = "producer_failure"

	// Scheduler errors
	ErrSchedulerStopped      ErrorCode = "scheduler_stopped"
	ErrSchedulerShutdownTime ErrorCode = "scheduler_shutdown_timeout"

	// Log route errors
	ErrDuplicateLogRoute ErrorCode = "duplicate_log_route"
	ErrLogRouteAccess    ErrorCode = "log_route_access_failed"

	// Notification errors
	ErrNotificationFailed ErrorCode = "notification_failed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:              "Internal error occurred",
	ErrInvalidArgument:       "Invalid argument provided",
	ErrUnavailable:           "Service unavailable",
	ErrAlreadyRunning:        "Another instance is already running",
	ErrInvalidConfig:         "Invalid configuration",
	ErrBindFlags:             "Failed to bind flags",
	ErrReadConfig:            "Failed to read configuration",
	ErrInvalidInterval:       "Invalid interval value",
	ErrInvalidLogLevel:       "Invalid log level",
	ErrInitFailed:            "Initialization failed",
	ErrShutdownFailed:        "Shutdown failed",
	ErrSensorUnavailable:     "Sensor not present on this machine",
	ErrProducerFailure:       "Metric producer failed",
	ErrSchedulerStopped:      "Scheduler is not running",
	ErrSchedulerShutdownTime: "Scheduler failed to drain before deadline",
	ErrDuplicateLogRoute:     "Log stream already has a handler",
	ErrLogRouteAccess:        "Failed to access log stream",
	ErrNotificationFailed:    "Failed to deliver notification",
	ErrInitApp:               "Failed to initialize application",
	ErrMainLoop:              "Error in main loop",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
