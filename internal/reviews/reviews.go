// Package reviews serves the testimonials shown on the landing page.
package reviews

import (
	"net/http"

	"github.com/wolfman30/padel-booking/internal/http/respond"
)

// Review is a single customer testimonial.
type Review struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Avatar string `json:"avatar,omitempty"`
}

var catalog = []Review{
	{
		ID:     "1",
		Name:   "Alexey K.",
		Text:   "Great place! I came in as a beginner and a month later I play regularly. Amazing atmosphere!",
		Rating: 5,
		Avatar: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=100&h=100&fit=crop",
	},
	{
		ID:     "2",
		Name:   "Maria S.",
		Text:   "Booked a corporate event with friends and had a blast. We will definitely be back.",
		Rating: 5,
		Avatar: "https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=100&h=100&fit=crop",
	},
	{
		ID:     "3",
		Name:   "Dmitry V.",
		Text:   "Switched over from tennis. Padel is faster and more social. Recommended!",
		Rating: 5,
		Avatar: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop",
	},
	{
		ID:     "4",
		Name:   "Elena P.",
		Text:   "The coach explained all the rules in ten minutes. Now I come every week.",
		Rating: 5,
		Avatar: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=100&h=100&fit=crop",
	},
}

// All returns a copy of the testimonials in display order.
func All() []Review {
	out := make([]Review, len(catalog))
	copy(out, catalog)
	return out
}

// ListReviews handles GET /api/reviews requests
func ListReviews(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, All())
}
