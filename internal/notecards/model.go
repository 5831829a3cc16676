package notecards

// Notecard pairs an English phrase with its Irish translation. Category
// membership is never stored on the row; it is derived from the association
// table at query time.
type Notecard struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID        int64  `gorm:"column:user_id;not null;index" json:"userId"`
	EnglishPhrase string `gorm:"column:english_phrase;size:500;not null" json:"englishPhrase"`
	IrishPhrase   string `gorm:"column:irish_phrase;size:500;not null" json:"irishPhrase"`
}

// TableName provides the explicit table binding for GORM.
func (Notecard) TableName() string {
	return "notecards"
}

// Category is a shared label. Categories carry no owner; the taxonomy is
// global across users while notecards themselves are strictly per-user.
type Category struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;size:190;uniqueIndex;not null" json:"name"`
}

// TableName provides the explicit table binding for GORM.
func (Category) TableName() string {
	return "categories"
}

// NotecardCategory is the association table, the single source of truth for
// notecard to category membership. Rows cascade away with their notecard.
type NotecardCategory struct {
	NotecardID int64    `gorm:"column:notecard_id;primaryKey"`
	CategoryID int64    `gorm:"column:category_id;primaryKey"`
	Notecard   Notecard `gorm:"foreignKey:NotecardID;constraint:OnDelete:CASCADE" json:"-"`
	Category   Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (NotecardCategory) TableName() string {
	return "notecard_categories"
}

// CategoryRef is the {id, name} pair carried by request payloads and nested
// inside views. Callers are trusted to reference pre-existing category ids.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// View is a notecard with its derived, de-duplicated category list. The
// Categories slice is always non-nil so zero associations serialize as [].
type View struct {
	ID            int64         `json:"id"`
	EnglishPhrase string        `json:"englishPhrase"`
	IrishPhrase   string        `json:"irishPhrase"`
	Categories    []CategoryRef `json:"categories"`
}
