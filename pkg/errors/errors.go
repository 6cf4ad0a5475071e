package errors

import (
	"errors"
	"fmt"
)

var (
	ErrPersistence     = errors.New("persistence failure")
	ErrPluginNotFound  = errors.New("Not Found")
	ErrPluginDisabled  = errors.New("is Disabled")
	ErrMissingSource   = errors.New("is Missing source code")
	ErrWrongResult     = errors.New("Wrong result")
	ErrVersionLookup   = errors.New("Plugin not found. Please update the Plugin-Hub.")
	ErrDuplicatePlugin = errors.New("duplicate plugin id")
	ErrInvalidTrigger  = errors.New("invalid trigger")
	ErrHookNotDefined  = errors.New("hook is not defined")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrProfileNotFound = errors.New("profile not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrFetchFailed     = errors.New("fetch failed")
	ErrImportInvalid   = errors.New("Invalid configuration file format")
)

// PluginError carries the display name of the plugin whose hook failed.
// PluginError 携带执行失败的插件显示名称。
type PluginError struct {
	Name string
	Err  error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("%s : %v", e.Name, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

func NewPluginError(name string, err error) error {
	return &PluginError{Name: name, Err: err}
}

func NewPersistenceError(target string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, target, err)
}

// NewNotFoundError renders "<id> Not Found".
// NewNotFoundError 生成 "<id> Not Found"。
func NewNotFoundError(id string) error {
	return fmt.Errorf("%s %w", id, ErrPluginNotFound)
}

func NewDisabledError(name string) error {
	return fmt.Errorf("%s %w", name, ErrPluginDisabled)
}

func NewMissingSourceError(name string) error {
	return fmt.Errorf("%s %w", name, ErrMissingSource)
}

func NewHookError(fn string) error {
	return fmt.Errorf("%w: %s", ErrHookNotDefined, fn)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

func NewFetchError(url string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, reason)
}
