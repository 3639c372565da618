package settings

import (
	"fmt"
	"strconv"

	"github.com/starford/notelens/internal/apperr"
)

// Keys lists the settable keys in display order.
var Keys = []string{
	"api_key", "model", "max_linked_notes", "include_subfolders", "analysis_depth",
	"show_graph_view", "graph_theme", "graph_layout", "enable_tag_filters",
	"enable_date_filters", "enable_type_filters", "create_analysis_file", "analysis_template",
}

func (s *Settings) set(key, value string) error {
	var err error
	switch key {
	case "api_key":
		s.APIKey = value
	case "model":
		s.Model = value
	case "max_linked_notes":
		s.MaxLinkedNotes, err = strconv.Atoi(value)
	case "include_subfolders":
		s.IncludeSubfolders, err = strconv.ParseBool(value)
	case "analysis_depth":
		s.AnalysisDepth = value
	case "show_graph_view":
		s.ShowGraphView, err = strconv.ParseBool(value)
	case "graph_theme":
		s.GraphTheme = value
	case "graph_layout":
		s.GraphLayout = value
	case "enable_tag_filters":
		s.EnableTagFilters, err = strconv.ParseBool(value)
	case "enable_date_filters":
		s.EnableDateFilters, err = strconv.ParseBool(value)
	case "enable_type_filters":
		s.EnableTypeFilters, err = strconv.ParseBool(value)
	case "create_analysis_file":
		s.CreateAnalysisFile, err = strconv.ParseBool(value)
	case "analysis_template":
		s.AnalysisTemplate = value
	default:
		return fmt.Errorf("settings: unknown key %q: %w", key, apperr.ErrInvalid)
	}
	if err != nil {
		return fmt.Errorf("settings: %s: %v: %w", key, err, apperr.ErrInvalid)
	}
	return nil
}
