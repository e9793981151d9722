package widgets

// Result is the standardized output of any widget processor, serialized
// as-is into the dashboard response.
type Result struct {
	WidgetID   int            `json:"widget_id"`
	WidgetName string         `json:"widget_name"`
	WidgetType string         `json:"widget_type"`
	Data       any            `json:"data"`
	Metadata   map[string]any `json:"metadata"`
}

// result builds a populated Result. The category lands in metadata as
// widget_category; callers append further metadata entries directly.
func (c *Context) result(widgetType, category string, data any) Result {
	return Result{
		WidgetID:   c.WidgetID,
		WidgetName: c.DisplayName,
		WidgetType: widgetType,
		Data:       data,
		Metadata:   map[string]any{"widget_category": category},
	}
}

// emptyResult is the standard no-data response.
func (c *Context) emptyResult(widgetType string) Result {
	return Result{
		WidgetID:   c.WidgetID,
		WidgetName: c.DisplayName,
		WidgetType: widgetType,
		Data:       nil,
		Metadata:   map[string]any{"empty": true, "message": "No hay datos disponibles"},
	}
}

// errorResult marks a widget that could not be processed. The class
// name stands in for the display name since catalog resolution may not
// have happened yet.
func errorResult(className, message string) Result {
	return Result{
		WidgetID:   0,
		WidgetName: className,
		WidgetType: "error",
		Data:       nil,
		Metadata:   map[string]any{"error": true, "message": message},
	}
}
