package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/wire"
)

// Sender performs one monkey request/response exchange.
type Sender interface {
	Send(cmd wire.Command) (wire.Response, error)
}

type IDKind string

const (
	KindViewID           IDKind = "viewid"
	KindAccessibilityIDs IDKind = "accessibilityids"
)

// ID addresses a view either by its resource id or by its accessibility
// window/view pair.
type ID struct {
	Kind   IDKind
	Values []string
}

func ViewID(id string) ID {
	return ID{Kind: KindViewID, Values: []string{id}}
}

func AccessibilityID(windowID, viewID string) ID {
	return ID{Kind: KindAccessibilityIDs, Values: []string{windowID, viewID}}
}

func (id ID) Tokens() []string {
	return append([]string{string(id.Kind)}, id.Values...)
}

func (id ID) String() string {
	return strings.Join(id.Tokens(), " ")
}

// parseAccessibilityIDs turns "w1 v1 w2 v2 ..." into ids.
func parseAccessibilityIDs(payload string) ([]ID, error) {
	fields := strings.Fields(payload)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd accessibility id list %q", definitions.ErrMalformedResult, payload)
	}
	ids := make([]ID, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		ids = append(ids, AccessibilityID(fields[i], fields[i+1]))
	}
	return ids, nil
}

// ParseRootID decodes the payload of a getrootview reply.
func ParseRootID(payload string) (ID, error) {
	ids, err := parseAccessibilityIDs(payload)
	if err != nil {
		return ID{}, err
	}
	if len(ids) != 1 {
		return ID{}, fmt.Errorf("%w: root view %q", definitions.ErrMalformedResult, payload)
	}
	return ids[0], nil
}

type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Rect) Center() definitions.Point {
	return definitions.Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// View is a handle to a single view on the device. Every accessor is a
// queryview round trip.
type View struct {
	id     ID
	sender Sender
}

func New(sender Sender, id ID) *View {
	return &View{id: id, sender: sender}
}

func (v *View) ID() ID {
	return v.id
}

func (v *View) query(query string, args ...string) (string, error) {
	cmdArgs := append(v.id.Tokens(), query)
	cmdArgs = append(cmdArgs, args...)
	cmd := wire.NewCommand("queryview", cmdArgs...)
	resp, err := v.sender.Send(cmd)
	if err != nil {
		return "", err
	}
	if err := resp.Err(cmd); err != nil {
		return "", err
	}
	return resp.Payload, nil
}

func (v *View) queryBool(query string) (bool, error) {
	out, err := v.query(query)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(out))
	if err != nil {
		return false, fmt.Errorf("%w: %s returned %q", definitions.ErrMalformedResult, query, out)
	}
	return b, nil
}

func (v *View) Location() (Rect, error) {
	out, err := v.query("getlocation")
	if err != nil {
		return Rect{}, err
	}
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return Rect{}, fmt.Errorf("%w: getlocation returned %q", definitions.ErrMalformedResult, out)
	}
	nums := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Rect{}, fmt.Errorf("%w: getlocation returned %q", definitions.ErrMalformedResult, out)
		}
		nums[i] = n
	}
	left, top, width, height := nums[0], nums[1], nums[2], nums[3]
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}, nil
}

func (v *View) Text() (string, error) {
	return v.query("gettext")
}

func (v *View) Class() (string, error) {
	return v.query("getclass")
}

func (v *View) Checked() (bool, error) {
	return v.queryBool("getchecked")
}

func (v *View) Enabled() (bool, error) {
	return v.queryBool("getenabled")
}

func (v *View) Selected() (bool, error) {
	return v.queryBool("getselected")
}

func (v *View) SetSelected(selected bool) error {
	_, err := v.query("setselected", strconv.FormatBool(selected))
	return err
}

func (v *View) Focused() (bool, error) {
	return v.queryBool("getfocused")
}

func (v *View) SetFocused(focused bool) error {
	_, err := v.query("setfocused", strconv.FormatBool(focused))
	return err
}

// Parent returns nil when the view has no parent.
func (v *View) Parent() (*View, error) {
	out, err := v.query("getparent")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	id, err := ParseRootID(out)
	if err != nil {
		return nil, err
	}
	return New(v.sender, id), nil
}

func (v *View) Children() ([]*View, error) {
	out, err := v.query("getchildren")
	if err != nil {
		return nil, err
	}
	ids, err := parseAccessibilityIDs(out)
	if err != nil {
		return nil, err
	}
	children := make([]*View, 0, len(ids))
	for _, id := range ids {
		children = append(children, New(v.sender, id))
	}
	return children, nil
}

func (v *View) AccessibilityIDs() ([]string, error) {
	out, err := v.query("getaccessibilityids")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}
