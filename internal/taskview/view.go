package taskview

import (
	"strconv"
	"strings"

	"github.com/fentz26/supportdesk/internal/models"
)

// View is a snapshot of everything a renderer needs.
type View struct {
	Rows               []models.Task
	Selected           []string
	Page               PageInfo
	AllVisibleSelected bool
	Loading            bool
	Query              string
	StatusFilter       StatusFilter
	SortKey            SortKey
	Direction          Direction
}

// View computes the pipeline output for the current state.
func (s *State) View() View {
	return View{
		Rows:               s.Visible(),
		Selected:           s.SelectedIDs(),
		Page:               s.PageInfo(),
		AllVisibleSelected: s.AllVisibleSelected(),
		Loading:            s.loading,
		Query:              s.query,
		StatusFilter:       s.statusFilter,
		SortKey:            s.sortKey,
		Direction:          s.direction,
	}
}

// Column is a sortable table column.
type Column struct {
	Title string
	Key   SortKey
}

// Columns lists the task table columns in display order.
var Columns = []Column{
	{Title: "Project Title", Key: SortProjectTitle},
	{Title: "Description", Key: SortDescription},
	{Title: "Status", Key: SortStatus},
	{Title: "Team Members", Key: SortTeamMembers},
}

// StatusLabel renders a status for display: first letter upper-cased and the
// first hyphen replaced by a space. Unknown values go through the same rule.
func StatusLabel(status models.TaskStatus) string {
	s := string(status)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.Replace(s[1:], "-", " ", 1)
}

// KnownStatus reports whether status has dedicated styling.
func KnownStatus(status models.TaskStatus) bool { return status.Valid() }

// KeywordSummary joins the first three keywords, adding an ellipsis when more exist.
func KeywordSummary(keywords []string) string {
	if len(keywords) <= 3 {
		return strings.Join(keywords, ", ")
	}
	return strings.Join(keywords[:3], ", ") + ", ..."
}

// MemberSummary lists up to three member names followed by a "+N" overflow.
func MemberSummary(members []models.Member) string {
	names := make([]string, 0, 3)
	for i, m := range members {
		if i == 3 {
			break
		}
		names = append(names, m.Name)
	}
	out := strings.Join(names, ", ")
	if extra := len(members) - 3; extra > 0 {
		out += " +" + strconv.Itoa(extra)
	}
	return out
}
