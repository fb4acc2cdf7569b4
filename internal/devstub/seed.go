package devstub

import "agencyctl/internal/core/domain"

// DemoSeeds returns a little starter content per resource so a fresh stub
// renders populated admin pages. IDs are fixed strings on purpose: restarting
// the stub must not duplicate the seeds.
func DemoSeeds() map[string][]domain.Record {
	return map[string][]domain.Record{
		"blogs": {
			{
				"_id":       "seed-blog-1",
				"title":     "Shipping the relaunch",
				"slug":      "shipping-the-relaunch",
				"excerpt":   "What we learned rebuilding our own site.",
				"content":   "<p>Six weeks, three designers, one very patient PM.</p>",
				"author":    "Studio Team",
				"tags":      []any{"process", "design"},
				"featured":  true,
				"createdAt": "2025-11-03T09:00:00Z",
				"updatedAt": "2025-11-03T09:00:00Z",
			},
		},
		"careers": {
			{
				"id":               "seed-career-1",
				"title":            "Senior Product Designer",
				"department":       "Design",
				"location":         "Remote",
				"type":             "Full-time",
				"description":      "Own end-to-end design for client engagements.",
				"requirements":     []any{"5+ years product design", "Strong systems thinking"},
				"responsibilities": []any{"Lead discovery workshops", "Ship polished UI"},
				"active":           true,
				"createdAt":        "2025-10-20T12:00:00Z",
				"updatedAt":        "2025-10-20T12:00:00Z",
			},
		},
		"faqs": {
			{
				"id":       "seed-faq-1",
				"question": "How do engagements usually start?",
				"answer":   "With a two-week discovery sprint.",
				"category": "Services",
				"order":    1,
			},
		},
		"testimonials": {
			{
				"_id":        "seed-testimonial-1",
				"clientName": "Maya K.",
				"company":    "Brightline",
				"quote":      "They rebuilt our whole storefront in six weeks.",
				"rating":     5,
				"featured":   true,
			},
		},
	}
}
