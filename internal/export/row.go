package export

import "calexport/internal/models"

// Columns is the CSV header. Keep order EXACT.
var Columns = []string{
	"ID",
	"TITLE",
	"LOCATION",
	"STARTDATE",
	"ENDDATE",
	"COLOR",
	"ALLDAY",
	"PRIVATE",
	"CREATIONDATE",
	"CREATOR_ID",
	"COURSE_ID",
	"CONNECTED_ID",
	"USERINTERFACE_NAME",
	"NOTE",
}

// Row is one flattened event, one cell per entry in Columns.
type Row [14]string

// ToRow flattens an event. Only the note is transformed; every other field is
// passed through as received.
func ToRow(e models.Event) Row {
	return Row{
		e.ID.String(),                                 // ID
		e.Title.String(),                              // TITLE
		e.Location.String(),                           // LOCATION
		e.StartDate.String(),                          // STARTDATE
		e.EndDate.String(),                            // ENDDATE
		e.Color.String(),                              // COLOR
		e.AllDay.String(),                             // ALLDAY
		e.Private.String(),                            // PRIVATE
		e.CreationDate.String(),                       // CREATIONDATE
		e.CreatorID.String(),                          // CREATOR_ID
		e.CourseID.String(),                           // COURSE_ID
		e.ConnectedID.String(),                        // CONNECTED_ID
		e.UserInterface.Name(),                        // USERINTERFACE_NAME
		StripHTML(e.Note.String(), DefaultNoteLength), // NOTE
	}
}

// ToRows flattens events in order.
func ToRows(events []models.Event) []Row {
	rows := make([]Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, ToRow(e))
	}
	return rows
}

// Get returns the cell for column, "" for unknown columns.
func (r Row) Get(column string) string {
	for i, c := range Columns {
		if c == column {
			return r[i]
		}
	}
	return ""
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(Columns))
	for i, c := range Columns {
		m[c] = r[i]
	}
	return m
}
