package portal

import "errors"

var (
	ErrUnknownRole     = errors.New("portal: unknown role")
	ErrInvalidSize     = errors.New("portal: invalid widget size")
	ErrMissingStore    = errors.New("portal: key-value store not configured")
	ErrPresetName      = errors.New("portal: preset name is required")
	ErrNotEditing      = errors.New("portal: dashboard is not in edit mode")
	ErrDragInProgress  = errors.New("portal: another widget is already being dragged")
	ErrNoDrag          = errors.New("portal: no drag in progress")
	ErrInvalidRecord   = errors.New("portal: persisted record failed validation")
	errInvalidWidgetID = errors.New("portal: widget id is required")
)
