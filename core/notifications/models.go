package notifications

type Notification struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Preferences are the notification subscriptions of the user.
type Preferences struct {
	Token string `json:"token"`
	Email string `json:"email"`

	SubstitutionsNotificationsImmediate      bool   `json:"substitutionsNotificationsImmediate"`
	SubstitutionsNotificationsSetTime        bool   `json:"substitutionsNotificationsSetTime"`
	SubstitutionsNotificationsCurrentDayTime string `json:"substitutionsNotificationsCurrentDayTime"`
	SubstitutionsNotificationsNextDayTime    string `json:"substitutionsNotificationsNextDayTime"`

	CircularsNotificationsEnabled bool `json:"circularsNotificationsEnabled"`
	SnackMenuNotificationsEnabled bool `json:"snackMenuNotificationsEnabled"`
	LunchMenuNotificationsEnabled bool `json:"lunchMenuNotificationsEnabled"`
}

func DefaultPreferences() Preferences {
	return Preferences{SubstitutionsNotificationsCurrentDayTime: "07:00"}
}

func (p Preferences) subscribed() bool {
	return p.SubstitutionsNotificationsImmediate || p.SubstitutionsNotificationsSetTime ||
		p.CircularsNotificationsEnabled || p.SnackMenuNotificationsEnabled || p.LunchMenuNotificationsEnabled
}

// UpdatePreferences holds the preferences to change; nil fields are left untouched.
type UpdatePreferences struct {
	Email *string `json:"email" validate:"omitempty,email"`

	SubstitutionsNotificationsImmediate      *bool   `json:"substitutionsNotificationsImmediate"`
	SubstitutionsNotificationsSetTime        *bool   `json:"substitutionsNotificationsSetTime"`
	SubstitutionsNotificationsCurrentDayTime *string `json:"substitutionsNotificationsCurrentDayTime" validate:"omitempty,hhmm"`
	SubstitutionsNotificationsNextDayTime    *string `json:"substitutionsNotificationsNextDayTime" validate:"omitempty,hhmm"`

	CircularsNotificationsEnabled *bool `json:"circularsNotificationsEnabled"`
	SnackMenuNotificationsEnabled *bool `json:"snackMenuNotificationsEnabled"`
	LunchMenuNotificationsEnabled *bool `json:"lunchMenuNotificationsEnabled"`
}

func (u UpdatePreferences) apply(p *Preferences) {
	if u.Email != nil {
		p.Email = *u.Email
	}
	setBool(&p.SubstitutionsNotificationsImmediate, u.SubstitutionsNotificationsImmediate)
	setBool(&p.SubstitutionsNotificationsSetTime, u.SubstitutionsNotificationsSetTime)
	if u.SubstitutionsNotificationsCurrentDayTime != nil {
		p.SubstitutionsNotificationsCurrentDayTime = *u.SubstitutionsNotificationsCurrentDayTime
	}
	if u.SubstitutionsNotificationsNextDayTime != nil {
		p.SubstitutionsNotificationsNextDayTime = *u.SubstitutionsNotificationsNextDayTime
	}
	setBool(&p.CircularsNotificationsEnabled, u.CircularsNotificationsEnabled)
	setBool(&p.SnackMenuNotificationsEnabled, u.SnackMenuNotificationsEnabled)
	setBool(&p.LunchMenuNotificationsEnabled, u.LunchMenuNotificationsEnabled)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
