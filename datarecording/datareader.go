package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams encapsulates all query parameters
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword
	// Example: "Edge > ? AND State = ?"
	Where string

	// Args holds the arguments for the placeholders in Where
	Args []any

	// Limit is the maximum number of records to return. Zero means no limit.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords
	OrderBy string
}

// DataReader reads the tables written by a DataRecorder.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go struct
	// type. This mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of all the tables in the database.
	ListTables() []string

	// Query executes a query on a table and returns pointers to structs of
	// the mapped type.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

// NewReader creates a new DataReader
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	rows, err := r.DB.Query(
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			panic(err)
		}

		tables = append(tables, name)
	}

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.whereClause(),
		params.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.whereClause()+params.pageClause(),
		params.Args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanRowsToSlice(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (p QueryParams) whereClause() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

// pageClause ignores Offset unless Limit is set.
func (p QueryParams) pageClause() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)
	}

	if p.Limit > 0 && p.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", p.Offset)
	}

	return b.String()
}

func scanRowsToSlice(rows *sql.Rows, structType reflect.Type) ([]any, error) {
	var results []any

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldMap := make(map[string]int)
	for i := 0; i < structType.NumField(); i++ {
		fieldMap[structType.Field(i).Name] = i
	}

	for rows.Next() {
		structPtr := reflect.New(structType)
		structVal := structPtr.Elem()
		scanTargets := make([]any, len(columns))

		for i, colName := range columns {
			if fieldIdx, ok := fieldMap[colName]; ok {
				scanTargets[i] = structVal.Field(fieldIdx).Addr().Interface()
			} else {
				var placeholder any
				scanTargets[i] = &placeholder
			}
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		results = append(results, structPtr.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
