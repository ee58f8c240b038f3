package giftideas

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the gift-advisor prompt from whichever person
// attributes were filled in.
func BuildPrompt(p Person) string {
	var sections []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			sections = append(sections, label+": "+v)
		}
	}
	add("Hobbies", p.Hobbies)
	add("Occupation", p.Occupation)
	add("Interests", p.Interests)
	add("Personality", p.Personality)
	add("Favorite Things", p.Favorites)
	add("Age", p.Age)
	add("Budget", p.Budget)

	return fmt.Sprintf(`You are a helpful gift advisor. Generate 8 creative and personalized gift ideas for someone with these details:

%s

Requirements:
- Provide EXACTLY 8 different gift ideas
- Make each gift thoughtful and personalized
- Include practical gifts that are actually available to buy
- Consider the budget if specified
- Mix different categories: physical items, experiences, subscriptions, etc.

Format EACH gift idea EXACTLY like this:
**Gift Name** - Description of the gift and why it's perfect for them (Price estimate if budget provided)

Start now with gift idea #1:`, strings.Join(sections, "\n"))
}
