package domain

// Location names one of the two stock containers.
type Location string

const (
	LocationWarehouse Location = "warehouse"
	LocationShop      Location = "shop"
)

// Verb is the action a command asks for.
type Verb string

const (
	VerbDeliver Verb = "deliver"
	VerbCollect Verb = "collect"
)

// Request is a validated transfer command.
// Destination is set only when Source is the warehouse.
type Request struct {
	Amount      int
	Product     string
	Source      Location
	Destination Location
}

func (r Request) Verb() Verb {
	if r.Source == LocationWarehouse {
		return VerbDeliver
	}
	return VerbCollect
}

func (r Request) HasDestination() bool {
	return r.Destination != ""
}
