package food

type (
	Snack struct {
		Normal         *string `json:"normal"`
		Vegetarian     *string `json:"vegetarian"`
		Poultry        *string `json:"poultry"`
		FruitVegetable *string `json:"fruitvegetable"`
	}

	Lunch struct {
		Until      *string `json:"until"`
		Normal     *string `json:"normal"`
		Vegetarian *string `json:"vegetarian"`
	}

	Menu struct {
		Date  string `json:"date"`
		Snack *Snack `json:"snack"`
		Lunch *Lunch `json:"lunch"`
	}

	LunchSchedule struct {
		Date     string  `json:"date"`
		Time     *string `json:"time"`
		Class    *string `json:"class"`
		Notes    *string `json:"notes"`
		Location *string `json:"location"`
	}

	State struct {
		Menus          []Menu            `json:"menus"`
		LunchSchedules [][]LunchSchedule `json:"lunchSchedules"` // one slice per weekday
	}
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Item returns the snack of the given type ("" when unknown or missing).
func (s *Snack) Item(typ string) string {
	if s == nil {
		return ""
	}
	switch typ {
	case "normal":
		return deref(s.Normal)
	case "vegetarian":
		return deref(s.Vegetarian)
	case "poultry":
		return deref(s.Poultry)
	case "fruitvegetable":
		return deref(s.FruitVegetable)
	}
	return ""
}

// Item returns the lunch of the given type ("" when unknown or missing).
func (l *Lunch) Item(typ string) string {
	if l == nil {
		return ""
	}
	switch typ {
	case "normal":
		return deref(l.Normal)
	case "vegetarian":
		return deref(l.Vegetarian)
	}
	return ""
}
