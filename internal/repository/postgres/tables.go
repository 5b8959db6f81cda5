package postgres

import "fmt"

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Folders string
	Files   string
	Shares  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders: fmt.Sprintf("%sfolders", prefix),
		Files:   fmt.Sprintf("%sfiles", prefix),
		Shares:  fmt.Sprintf("%sshares", prefix),
	}
}
