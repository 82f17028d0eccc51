package catalog

import "physquiz/internal/domain"

var basicsQuestions = []domain.Question{
	{
		Text:    "u = 20 m/s, t = 12s, a = 10 m/s². Which formula gives v?",
		Answer:  "v = u + at",
		Options: []string{"v = u + at", "s = ut + 1/2 at²", "v² = u² + 2as", "s = 1/2 (u+v)t"},
	},
	{Text: "If u = 0, a = 9.8 m/s², t = 5s. What is s?", Answer: "122.5"},
	{
		Text:    "Which formula represents displacement with initial velocity?",
		Answer:  "s = ut + 1/2 at²",
		Options: []string{"s = ut + 1/2 at²", "v = u + at", "F = ma", "E = mc²"},
	},
	{Text: "u = 15 m/s, v = 35 m/s, t = 4s. What is a?", Answer: "5"},
	{
		Text:    "Which of these equations is derived from Newton's second law?",
		Answer:  "F = ma",
		Options: []string{"F = ma", "v = u + at", "s = ut + 1/2 at²", "p = mv"},
	},
	{Text: "A car accelerates from rest at 2 m/s² for 6s. Find v.", Answer: "12"},
	{Text: "If s = 100m, u = 10 m/s, v = 30 m/s, find t using s = 1/2(u+v)t.", Answer: "5"},
	{
		Text:    "Which formula relates velocity squared to displacement?",
		Answer:  "v² = u² + 2as",
		Options: []string{"v² = u² + 2as", "s = ut + 1/2 at²", "p = mv", "v = u + at"},
	},
	{Text: "u = 25 m/s, a = -5 m/s². Find time to stop.", Answer: "5"},
	{Text: "A stone is dropped (u = 0). Time = 3s. Find displacement.", Answer: "44.1"},
}

var trigQuestions = []domain.Question{
	{Text: "Simplify: tan 45° + cos 60°", Answer: "1.5", Options: []string{"1", "1.5", "√2/2", "2"}},
	{Text: "Simplify: (1 - cos²θ) / sin²θ", Answer: "1", Options: []string{"1", "cosθ", "tanθ", "cosec²θ"}},
	{Text: "In a right triangle, θ = 30° and hypotenuse = 10. Find the length of the side opposite θ.", Answer: "5"},
	{Text: "If sinθ = 3/5, find cosθ (θ acute).", Answer: "0.8"},
	{Text: "If tanθ = 4/3, find sinθ (θ acute).", Answer: "0.8"},
	{Text: "Solve for θ: sinθ = 0.5, θ ∈ [0°, 60°].", Answer: "30"},
	{Text: "Simplify: sin²θ + cos²θ.", Answer: "1"},
	{Text: "If cosθ = 12/13, find tanθ (θ acute).", Answer: "0.417"},
	{Text: "Find the exact value of sin45° × cos30° + cos45° × sin30°.", Answer: "0.966"},
	{Text: "Solve for θ: tanθ = 1, θ ∈ [0°, 60°].", Answer: "45°"},
}

var targetQuestions = []domain.Question{
	{Text: "A projectile is fired with u = 20 m/s at 30°. Find horizontal component of velocity.", Answer: "17.32"},
	{Text: "A projectile is fired with u = 20 m/s at 30°. Find vertical component of velocity.", Answer: "10"},
	{
		Text:    "Time of flight formula is?",
		Answer:  "T = 2u sinθ / g",
		Options: []string{"T = 2u sinθ / g", "T = u² sin2θ / g", "T = u cosθ / g", "T = 2u cosθ / g"},
	},
	{
		Text:    "Range formula is?",
		Answer:  "R = u² sin2θ / g",
		Options: []string{"R = u² sin2θ / g", "R = 2u sinθ / g", "R = u cosθ / g", "R = u² / g"},
	},
	{
		Text:    "Max height formula is?",
		Answer:  "H = u² sin²θ / 2g",
		Options: []string{"H = u² sin²θ / 2g", "H = u² cos²θ / 2g", "H = u² / 2g", "H = u sinθ / g"},
	},
	{Text: "u = 25 m/s, θ = 45°. Find time of flight (g = 9.8).", Answer: "3.61"},
	{Text: "u = 25 m/s, θ = 45°. Find range (g = 9.8).", Answer: "63.78"},
	{Text: "u = 25 m/s, θ = 30°. Find max height (g = 9.8).", Answer: "7.97"},
	{Text: "A projectile lands back at same height. Relationship between launch and landing angles?", Answer: "Equal in magnitude, opposite in sign"},
	{Text: "If time of flight = 4s, horizontal velocity = 15 m/s. Find range.", Answer: "60"},
}
