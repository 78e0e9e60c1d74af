package view

import "github.com/spance/chimpchat-go/chimpchat/wire"

// Selector resolves to exactly one view.
type Selector interface {
	View(s Sender) (*View, error)
}

// MultiSelector resolves to any number of views.
type MultiSelector interface {
	Views(s Sender) ([]*View, error)
}

type byID string

// ByID selects a view by its resource id. No request is made until the view is queried.
func ByID(id string) Selector {
	return byID(id)
}

func (b byID) View(s Sender) (*View, error) {
	return New(s, ViewID(string(b))), nil
}

type byText string

// ByText selects every view whose text matches.
func ByText(text string) MultiSelector {
	return byText(text)
}

func (b byText) Views(s Sender) ([]*View, error) {
	cmd := wire.NewCommand("getviewswithtext", string(b))
	resp, err := s.Send(cmd)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(cmd); err != nil {
		return nil, err
	}
	ids, err := parseAccessibilityIDs(resp.Payload)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(ids))
	for _, id := range ids {
		views = append(views, New(s, id))
	}
	return views, nil
}
