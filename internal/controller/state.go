package controller

import "github.com/aaravmahajanofficial/dine-in-preorder/internal/models"

type Kind string

const (
	KindBrowsing  Kind = "browsing"
	KindComposing Kind = "composing"
	KindConfirmed Kind = "confirmed"
)

// State is one of Browsing, Composing or Confirmed. The unexported method
// keeps other packages from adding variants.
type State interface {
	Kind() Kind
	state()
}

type Browsing struct{}

// Composing holds the restaurant whose menu is being ordered from.
type Composing struct {
	Restaurant models.Restaurant
}

// Confirmed holds the receipt returned by the order service.
type Confirmed struct {
	Confirmation models.OrderConfirmation
}

func (Browsing) Kind() Kind  { return KindBrowsing }
func (Composing) Kind() Kind { return KindComposing }
func (Confirmed) Kind() Kind { return KindConfirmed }

func (Browsing) state()  {}
func (Composing) state() {}
func (Confirmed) state() {}
