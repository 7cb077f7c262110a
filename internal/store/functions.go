package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
)

// Function represents a stored function row.
type Function struct {
	ID        int64
	Project   string
	FilePath  string
	Name      string
	Params    []string
	StartLine int
	EndLine   int
}

// ReplaceFileRecords replaces all stored functions and constraints for one
// file with the given extraction result. Functions are inserted in name order
// so repeated indexing of unchanged content yields identical rows. Callers
// wrap multi-file writes in WithTransaction.
func (s *Store) ReplaceFileRecords(project, relPath string, res extract.Result) error {
	if err := s.DeleteFileRecords(project, relPath); err != nil {
		return err
	}

	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := res[name]
		sqlRes, err := s.q.Exec(`
			INSERT INTO functions (project, file_path, name, params, start_line, end_line)
			VALUES (?, ?, ?, ?, ?, ?)`,
			project, relPath, rec.Name, marshalParams(rec.Params), rec.StartLine, rec.EndLine)
		if err != nil {
			return fmt.Errorf("insert function %s: %w", rec.Name, err)
		}
		fnID, err := sqlRes.LastInsertId()
		if err != nil {
			return fmt.Errorf("function id: %w", err)
		}
		pos := 0
		for _, param := range rec.Params {
			for _, c := range rec.Constraints[param] {
				_, err := s.q.Exec(`
					INSERT INTO constraints (function_id, position, ident, expression, operator, value, altvalue, kind)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					fnID, pos, c.Ident, c.Expression, c.Operator, c.Value, c.AltValue, string(c.Kind))
				if err != nil {
					return fmt.Errorf("insert constraint: %w", err)
				}
				pos++
			}
		}
	}
	return nil
}

// DeleteFileRecords deletes all functions (and, via CASCADE, constraints)
// stored for one file.
func (s *Store) DeleteFileRecords(project, relPath string) error {
	_, err := s.q.Exec("DELETE FROM functions WHERE project=? AND file_path=?", project, relPath)
	return err
}

// ListFunctions returns stored functions for a project, optionally filtered
// by a substring of the function name.
func (s *Store) ListFunctions(project, nameFilter string) ([]*Function, error) {
	query := `SELECT id, project, file_path, name, params, start_line, end_line
		FROM functions WHERE project=?`
	args := []any{project}
	if nameFilter != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+nameFilter+"%")
	}
	query += " ORDER BY file_path, start_line"
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	defer rows.Close()
	return scanFunctions(rows)
}

// GetFunctions returns every stored function with the given exact name.
// The same name can legitimately appear in several files.
func (s *Store) GetFunctions(project, name string) ([]*Function, error) {
	rows, err := s.q.Query(`SELECT id, project, file_path, name, params, start_line, end_line
		FROM functions WHERE project=? AND name=? ORDER BY file_path`, project, name)
	if err != nil {
		return nil, fmt.Errorf("get functions: %w", err)
	}
	defer rows.Close()
	return scanFunctions(rows)
}

// ConstraintsForFunction returns a stored function's constraints in recorded
// order.
func (s *Store) ConstraintsForFunction(functionID int64) ([]extract.Constraint, error) {
	rows, err := s.q.Query(`SELECT c.ident, c.expression, c.operator, c.value, c.altvalue, c.kind, f.name
		FROM constraints c JOIN functions f ON f.id = c.function_id
		WHERE c.function_id=? ORDER BY c.position`, functionID)
	if err != nil {
		return nil, fmt.Errorf("constraints for function: %w", err)
	}
	defer rows.Close()
	var result []extract.Constraint
	for rows.Next() {
		var c extract.Constraint
		var kind string
		if err := rows.Scan(&c.Ident, &c.Expression, &c.Operator, &c.Value, &c.AltValue, &kind, &c.FuncName); err != nil {
			return nil, err
		}
		c.Kind = extract.Kind(kind)
		result = append(result, c)
	}
	return result, rows.Err()
}

// CountFunctions returns the number of stored functions in a project.
func (s *Store) CountFunctions(project string) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM functions WHERE project=?", project).Scan(&count)
	return count, err
}

// CountConstraints returns the number of stored constraints in a project.
func (s *Store) CountConstraints(project string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM constraints c
		JOIN functions f ON f.id = c.function_id WHERE f.project=?`, project).Scan(&count)
	return count, err
}

func scanFunctions(rows *sql.Rows) ([]*Function, error) {
	var result []*Function
	for rows.Next() {
		var f Function
		var params string
		if err := rows.Scan(&f.ID, &f.Project, &f.FilePath, &f.Name, &params, &f.StartLine, &f.EndLine); err != nil {
			return nil, err
		}
		f.Params = unmarshalParams(params)
		result = append(result, &f)
	}
	return result, rows.Err()
}
