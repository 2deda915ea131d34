package scoring

type threshold struct {
	min   int
	label string
}

// gradeTable is ordered from the highest threshold down. Anything below
// the last threshold is "F".
var gradeTable = []threshold{
	{95, "A+"},
	{90, "A"},
	{85, "A-"},
	{80, "B+"},
	{75, "B"},
	{70, "B-"},
	{65, "C+"},
	{60, "C"},
	{55, "C-"},
	{50, "D+"},
	{45, "D"},
	{40, "D-"},
}

var categoryTable = []threshold{
	{80, "Excellent"},
	{65, "Good"},
	{50, "Fair"},
	{35, "Poor"},
}

// Grade returns the letter grade for score.
func Grade(score int) string {
	return lookup(gradeTable, score, "F")
}

// Category returns the descriptive band for score.
func Category(score int) string {
	return lookup(categoryTable, score, "Very Poor")
}

// Grades lists every grade from best to worst.
func Grades() []string {
	out := make([]string, 0, len(gradeTable)+1)
	for _, t := range gradeTable {
		out = append(out, t.label)
	}
	return append(out, "F")
}

func lookup(table []threshold, score int, floor string) string {
	for _, t := range table {
		if score >= t.min {
			return t.label
		}
	}
	return floor
}
