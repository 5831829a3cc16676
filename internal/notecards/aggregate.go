package notecards

// One outer-join query feeds both read forms. Folding the flat row stream
// into nested views avoids an N+1 query per notecard.
const (
	listRowsQuery = `
SELECT
    n.id AS notecard_id,
    n.english_phrase AS english_phrase,
    n.irish_phrase AS irish_phrase,
    c.id AS category_id,
    c.name AS category_name
FROM notecards n
LEFT JOIN notecard_categories nc ON n.id = nc.notecard_id
LEFT JOIN categories c ON nc.category_id = c.id
WHERE n.user_id = ?
ORDER BY n.id DESC, c.id ASC`

	singleRowsQuery = `
SELECT
    n.id AS notecard_id,
    n.english_phrase AS english_phrase,
    n.irish_phrase AS irish_phrase,
    c.id AS category_id,
    c.name AS category_name
FROM notecards n
LEFT JOIN notecard_categories nc ON n.id = nc.notecard_id
LEFT JOIN categories c ON nc.category_id = c.id
WHERE n.id = ? AND n.user_id = ?
ORDER BY c.id ASC`
)

type aggregateRow struct {
	NotecardID    int64   `gorm:"column:notecard_id"`
	EnglishPhrase string  `gorm:"column:english_phrase"`
	IrishPhrase   string  `gorm:"column:irish_phrase"`
	CategoryID    *int64  `gorm:"column:category_id"`
	CategoryName  *string `gorm:"column:category_name"`
}

// foldViews collapses the joined row stream into nested views in a single
// pass. Views keep first-seen order; a null category side contributes nothing
// so zero-association cards end with an empty list, never a null entry.
// Duplicate category ids for one card are dropped.
func foldViews(rows []aggregateRow) []View {
	index := make(map[int64]int, len(rows))
	seenCategories := make(map[int64]map[int64]struct{}, len(rows))
	views := make([]View, 0, len(rows))

	for _, row := range rows {
		position, known := index[row.NotecardID]
		if !known {
			position = len(views)
			index[row.NotecardID] = position
			seenCategories[row.NotecardID] = make(map[int64]struct{})
			views = append(views, View{
				ID:            row.NotecardID,
				EnglishPhrase: row.EnglishPhrase,
				IrishPhrase:   row.IrishPhrase,
				Categories:    []CategoryRef{},
			})
		}

		if row.CategoryID == nil {
			continue
		}
		if _, duplicate := seenCategories[row.NotecardID][*row.CategoryID]; duplicate {
			continue
		}
		seenCategories[row.NotecardID][*row.CategoryID] = struct{}{}

		name := ""
		if row.CategoryName != nil {
			name = *row.CategoryName
		}
		views[position].Categories = append(views[position].Categories, CategoryRef{
			ID:   *row.CategoryID,
			Name: name,
		})
	}

	return views
}
