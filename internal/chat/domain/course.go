package domain

// Lecturer contact details of a course
type Lecturer struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	OfficeHours string `json:"officeHours"`
}

// Course one selectable chat
type Course struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lecturer Lecturer `json:"lecturer"`
}

// DefaultCourses catalog used when none is configured
func DefaultCourses() []Course {
	return []Course{
		{
			ID:   "mathematik",
			Name: "Mathematik",
			Lecturer: Lecturer{
				Name:        "Prof. Dr. Anna Weber",
				Email:       "a.weber@hochschule.de",
				Phone:       "+49 30 1234-501",
				OfficeHours: "Mo 10:00-12:00",
			},
		},
		{
			ID:   "betriebssysteme",
			Name: "Betriebssysteme",
			Lecturer: Lecturer{
				Name:        "Prof. Dr. Thomas Keller",
				Email:       "t.keller@hochschule.de",
				Phone:       "+49 30 1234-502",
				OfficeHours: "Di 14:00-16:00",
			},
		},
		{
			ID:   "algorithmenUndProgrammiertechniken",
			Name: "Algorithmen und Programmiertechniken",
			Lecturer: Lecturer{
				Name:        "Dr. Julia Brandt",
				Email:       "j.brandt@hochschule.de",
				Phone:       "+49 30 1234-503",
				OfficeHours: "Do 09:00-11:00",
			},
		},
	}
}
