package domain

// UploadedFile is one persisted attachment manifest record for an intake.
type UploadedFile struct {
	PK        string
	SK        string
	IntakeID  string
	Name      string
	Size      int64
	MediaType string
	Text      string
	TTL       int64
}
