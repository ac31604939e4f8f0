package mtgrules

// Category is one of the nine fixed top-level rule categories.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var categories = []Category{
	{ID: "1", Title: "Game Concepts", Description: "Basic game rules and fundamental concepts"},
	{ID: "2", Title: "Parts of a Card", Description: "Card anatomy and components"},
	{ID: "3", Title: "Card Types", Description: "Different types of cards (creatures, instants, etc.)"},
	{ID: "4", Title: "Zones", Description: "Game zones like battlefield, graveyard, library"},
	{ID: "5", Title: "Turn Structure", Description: "How turns work and game phases"},
	{ID: "6", Title: "Spells, Abilities, and Effects", Description: "How spells and abilities work"},
	{ID: "7", Title: "Additional Rules", Description: "Special rules and interactions"},
	{ID: "8", Title: "Multiplayer Rules", Description: "Rules for multiplayer games"},
	{ID: "9", Title: "Casual Variants", Description: "Alternative game formats"},
}

// Categories returns the fixed category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryByID returns the category with the given id.
// Returns ENOTFOUND if no such category exists.
func CategoryByID(id string) (Category, error) {
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, Errorf(ENOTFOUND, "category %q not found", id)
}
