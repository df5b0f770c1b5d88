package batch

import (
	"fmt"
	"strings"

	"github.com/abelbrown/datasources/internal/observe"
)

// ChangeKind identifies a recorded widget change.
type ChangeKind uint8

const (
	ChangeInsertSections ChangeKind = iota
	ChangeDeleteSections
	ChangeReloadSections
	ChangeMoveSection
	ChangeInsert
	ChangeDelete
	ChangeReload
	ChangeMove
)

var changeNames = [...]string{
	ChangeInsertSections: "insert_sections",
	ChangeDeleteSections: "delete_sections",
	ChangeReloadSections: "reload_sections",
	ChangeMoveSection:    "move_section",
	ChangeInsert:         "insert",
	ChangeDelete:         "delete",
	ChangeReload:         "reload",
	ChangeMove:           "move",
}

func (k ChangeKind) String() string {
	if int(k) < len(changeNames) {
		return changeNames[k]
	}
	return fmt.Sprintf("ChangeKind(%d)", k)
}

// Change is one widget operation in widget coordinates. Which fields are
// set depends on Kind.
type Change struct {
	Kind     ChangeKind
	Sections []int                     // section changes
	From, To int                       // ChangeMoveSection
	Paths    []observe.IndexPath       // ChangeInsert, ChangeDelete
	Updates  []observe.IndexPathUpdate // ChangeReload
	FromPath observe.IndexPath         // ChangeMove
	ToPath   observe.IndexPath         // ChangeMove
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeInsertSections, ChangeDeleteSections, ChangeReloadSections:
		parts := make([]string, len(c.Sections))
		for i, s := range c.Sections {
			parts[i] = fmt.Sprint(s)
		}
		return c.Kind.String() + " " + strings.Join(parts, ",")
	case ChangeMoveSection:
		return fmt.Sprintf("%s %d->%d", c.Kind, c.From, c.To)
	case ChangeInsert, ChangeDelete:
		parts := make([]string, len(c.Paths))
		for i, p := range c.Paths {
			parts[i] = p.String()
		}
		return c.Kind.String() + " " + strings.Join(parts, ",")
	case ChangeReload:
		parts := make([]string, len(c.Updates))
		for i, u := range c.Updates {
			parts[i] = u.String()
		}
		return c.Kind.String() + " " + strings.Join(parts, ",")
	case ChangeMove:
		return fmt.Sprintf("%s %s->%s", c.Kind, c.FromPath, c.ToPath)
	}
	return c.Kind.String()
}

// apply performs c on w. Reloads address the old rows inside the immediate
// transaction and the new rows afterwards. Section changes are skipped on
// widgets without sections.
func (c Change) apply(w Widget, afterCompletion bool) {
	sw, sectioned := w.(SectionedWidget)
	switch c.Kind {
	case ChangeInsertSections:
		if sectioned {
			sw.InsertSections(c.Sections)
		}
	case ChangeDeleteSections:
		if sectioned {
			sw.DeleteSections(c.Sections)
		}
	case ChangeReloadSections:
		if sectioned {
			sw.ReloadSections(c.Sections)
		}
	case ChangeMoveSection:
		if sectioned {
			sw.MoveSection(c.From, c.To)
		}
	case ChangeInsert:
		w.Insert(c.Paths)
	case ChangeDelete:
		w.Delete(c.Paths)
	case ChangeReload:
		w.Reload(c.reloadPaths(afterCompletion))
	case ChangeMove:
		w.Move(c.FromPath, c.ToPath)
	}
}

func (c Change) reloadPaths(afterCompletion bool) []observe.IndexPath {
	paths := make([]observe.IndexPath, len(c.Updates))
	for i, u := range c.Updates {
		if afterCompletion {
			paths[i] = u.New
		} else {
			paths[i] = u.Old
		}
	}
	return paths
}
