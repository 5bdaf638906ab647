package domain

// DefaultCourse course shown before the user picks one
const DefaultCourse = "mathematik"

// Preference 使用者最後選擇的課程
type Preference struct {
	UserID         string `bson:"userId" json:"userId"`
	SelectedCourse string `bson:"selectedCourse" json:"selectedCourse"`
}
