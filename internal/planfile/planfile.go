// Package planfile loads plan items from schema-checked CUE files.
//
// A plan file looks like:
//
//	plan: [
//		{date: "2024-03-01", time: "07:30", type: "meal", reference_id: "oats", title: "Breakfast"},
//		{date: "2024-03-01", time: "22:30", type: "sleep", title: "Lights out"},
//	]
//
// JSON is a subset of CUE, so the same shape in a .json file also loads.
package planfile

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/healthsync/internal/domain"
)

//go:embed schema.cue
var schemaSrc string

// Error is a plan file problem with its source position when CUE knows it.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// entry mirrors #PlanItem for decoding.
type entry struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Load reads and parses the plan file at path for userID.
func Load(path, userID string) ([]domain.PlanItem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return Parse(path, src, userID)
}

// Parse validates src against the plan schema and converts its entries.
// The returned items are pending and carry no id; the caller stores them.
func Parse(filename string, src []byte, userID string) ([]domain.PlanItem, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("plan schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err, filename, data)
	}
	if !data.LookupPath(cue.ParsePath("plan")).Exists() {
		return nil, &Error{Message: "plan: field is required", Pos: data.Pos()}
	}

	v := schema.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename, data)
	}

	var file struct {
		Plan []entry `json:"plan"`
	}
	if err := v.Decode(&file); err != nil {
		return nil, formatCUEError(err, filename, data)
	}
	if len(file.Plan) == 0 {
		return nil, &Error{Message: "plan: no items"}
	}

	items := make([]domain.PlanItem, 0, len(file.Plan))
	for i, e := range file.Plan {
		item, err := e.toPlanItem(userID)
		if err != nil {
			return nil, &Error{
				Message: fmt.Sprintf("plan[%d]: %v", i, err),
				Pos:     v.LookupPath(cue.MakePath(cue.Str("plan"), cue.Index(i))).Pos(),
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (e entry) toPlanItem(userID string) (domain.PlanItem, error) {
	date, err := domain.ParseDate(e.Date)
	if err != nil {
		return domain.PlanItem{}, err
	}
	tod, err := domain.ParseTimeOfDay(e.Time)
	if err != nil {
		return domain.PlanItem{}, err
	}
	kind, err := domain.ParseActivityType(e.Type)
	if err != nil {
		return domain.PlanItem{}, err
	}
	return domain.PlanItem{
		UserID:      userID,
		Date:        date,
		Time:        tod,
		Type:        kind,
		ReferenceID: e.ReferenceID,
		Title:       e.Title,
		Description: e.Description,
	}, nil
}

// formatCUEError keeps the first CUE error. Its position is the first one
// inside filename; failing that, the position of the erroneous field in
// data. Disjunction failures often carry no position of their own.
func formatCUEError(err error, filename string, data cue.Value) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	out := &Error{Message: first.Error()}
	positions := errors.Positions(first)
	for _, pos := range positions {
		if pos.Filename() == filename {
			out.Pos = pos
			return out
		}
	}
	if path := errors.Path(first); len(path) > 0 {
		if pos := data.LookupPath(cuePath(path)).Pos(); pos.IsValid() {
			out.Pos = pos
			return out
		}
	}
	if len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}

// cuePath turns an error path like ["plan", "0", "type"] into a lookup path.
func cuePath(parts []string) cue.Path {
	sels := make([]cue.Selector, 0, len(parts))
	for _, p := range parts {
		if i, err := strconv.Atoi(p); err == nil {
			sels = append(sels, cue.Index(i))
			continue
		}
		sels = append(sels, cue.Str(p))
	}
	return cue.MakePath(sels...)
}
