package store

// DeleteRowForTest removes a template row directly, bypassing the
// built-in guard.
func DeleteRowForTest(s *SQLiteStore, id string) error {
	_, err := s.db.Exec("DELETE FROM templates WHERE id = ?", id)
	return err
}
