// Package formats holds the static catalog of bookable offerings.
package formats

// Option is one bookable offering shown in the booking dialog.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Price string `json:"price"`
}

const (
	OpenGame     = "open_game"
	Training     = "training"
	Subscription = "subscription"
	Corporate    = "corporate"
)

var catalog = []Option{
	{Value: OpenGame, Label: "Open game", Price: "4 000 ₽"},
	{Value: Training, Label: "Training with a coach", Price: "6 000 ₽"},
	{Value: Subscription, Label: "Subscription (4 games)", Price: "11 200 ₽"},
	{Value: Corporate, Label: "Corporate event / birthday", Price: "from 15 000 ₽"},
}

// Catalog returns a copy of the offerings in display order.
func Catalog() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Values returns the identifiers of every offering.
func Values() []string {
	values := make([]string, 0, len(catalog))
	for _, opt := range catalog {
		values = append(values, opt.Value)
	}
	return values
}

// Lookup finds an offering by identifier.
func Lookup(value string) (Option, bool) {
	for _, opt := range catalog {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Valid reports whether value names a catalog offering.
func Valid(value string) bool {
	_, ok := Lookup(value)
	return ok
}
