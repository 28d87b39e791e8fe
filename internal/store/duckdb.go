// Package store persists series and their derived columns in DuckDB,
// one table per symbol keyed by the datetime column.
//
// The store is a cache with no eviction policy of its own: consumers
// check column presence before recomputing an indicator or signal, and
// eviction is a deployment concern.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
	"go.uber.org/zap"
)

const insertBatchSize = 500

// baseColumns are the fixed bar columns of every symbol table.
var baseColumns = []string{"datetime", "open", "high", "low", "close", "volume"}

// DuckDB is a table-per-symbol series store.
type DuckDB struct {
	db  *sql.DB
	log *logger.Logger
	sq  sq.StatementBuilderType
}

// New opens (or creates) a DuckDB database at path. An empty path opens
// an in-memory database.
func New(path string, log *logger.Logger) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDB{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Close closes the underlying database.
func (s *DuckDB) Close() error {
	return s.db.Close()
}

// tableName maps a symbol to a safe identifier: non-alphanumerics become
// underscores and a leading digit is prefixed.
func tableName(symbol string) string {
	var b strings.Builder

	for _, r := range strings.ToUpper(symbol) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := b.String()
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "S_" + name
	}

	return name
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Has reports whether a table exists for the symbol.
func (s *DuckDB) Has(symbol string) (bool, error) {
	var count int

	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1`,
		tableName(symbol),
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to check table existence", err)
	}

	return count > 0, nil
}

// Columns returns the column names stored for the symbol.
func (s *DuckDB) Columns(symbol string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`,
		tableName(symbol),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list columns", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column name", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// HasColumns reports whether every named column is already stored for
// the symbol. Consumers call this before recomputing.
func (s *DuckDB) HasColumns(symbol string, names []string) (bool, error) {
	stored, err := s.Columns(symbol)
	if err != nil {
		return false, err
	}

	have := make(map[string]struct{}, len(stored))
	for _, name := range stored {
		have[name] = struct{}{}
	}

	for _, name := range names {
		if _, ok := have[name]; !ok {
			return false, nil
		}
	}

	return true, nil
}

// Get loads the series for a symbol, including every stored indicator
// and signal column. The second return is false when the symbol is not
// stored.
func (s *DuckDB) Get(symbol string) (*types.Series, bool, error) {
	exists, err := s.Has(symbol)
	if err != nil {
		return nil, false, err
	}

	if !exists {
		return nil, false, nil
	}

	query, args, err := s.sq.Select("*").From(tableName(symbol)).OrderBy("datetime ASC").ToSql()
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build select", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read series", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read column names", err)
	}

	var bars []types.Bar

	derived := make(map[string][]sql.NullFloat64)

	for rows.Next() {
		scan := make([]any, len(columnNames))

		var bar types.Bar

		values := make([]sql.NullFloat64, len(columnNames))

		for i, name := range columnNames {
			switch name {
			case "datetime":
				scan[i] = &bar.Datetime
			case "open":
				scan[i] = &bar.Open
			case "high":
				scan[i] = &bar.High
			case "low":
				scan[i] = &bar.Low
			case "close":
				scan[i] = &bar.Close
			case "volume":
				scan[i] = &bar.Volume
			default:
				scan[i] = &values[i]
			}
		}

		if err := rows.Scan(scan...); err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		bars = append(bars, bar)

		for i, name := range columnNames {
			if isBaseColumn(name) {
				continue
			}

			derived[name] = append(derived[name], values[i])
		}
	}

	if err := rows.Err(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate rows", err)
	}

	series, err := types.NewSeries(symbol, bars)
	if err != nil {
		return nil, false, err
	}

	for name, column := range derived {
		if strings.HasPrefix(name, types.SignalColumnPrefix) {
			if err := series.SetSignal(name, decodeSignals(column)); err != nil {
				return nil, false, err
			}

			continue
		}

		if err := series.SetColumn(name, decodeFloats(column)); err != nil {
			return nil, false, err
		}
	}

	return series, true, nil
}

// Put stores the series if the symbol has no table yet
// (create-if-absent semantics).
func (s *DuckDB) Put(symbol string, series *types.Series) error {
	exists, err := s.Has(symbol)
	if err != nil {
		return err
	}

	if exists {
		s.log.Debug("symbol already cached", zap.String("symbol", symbol))
		return nil
	}

	return s.create(symbol, series)
}

// Replace overwrites the stored series for the symbol.
func (s *DuckDB) Replace(symbol string, series *types.Series) error {
	if _, err := s.db.Exec("DROP TABLE IF EXISTS " + quote(tableName(symbol))); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop table", err)
	}

	return s.create(symbol, series)
}

// AddColumns upserts the named derived columns of the series onto the
// stored table, keyed by datetime.
func (s *DuckDB) AddColumns(symbol string, series *types.Series, names []string) error {
	if len(names) == 0 {
		return nil
	}

	exists, err := s.Has(symbol)
	if err != nil {
		return err
	}

	if !exists {
		return errors.Newf(errors.ErrCodeDataNotFound, "symbol %s is not stored", symbol)
	}

	table := quote(tableName(symbol))

	for _, name := range names {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s DOUBLE", table, quote(name))
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to add column %s", name)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	assignments := make([]string, len(names))
	for i, name := range names {
		assignments[i] = fmt.Sprintf("%s = $%d", quote(name), i+1)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"UPDATE %s SET %s WHERE datetime = $%d",
		table, strings.Join(assignments, ", "), len(names)+1,
	))
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare update", err)
	}
	defer stmt.Close()

	for i, bar := range series.Bars {
		args := make([]any, 0, len(names)+1)

		for _, name := range names {
			value, err := s.columnValue(series, name, i)
			if err != nil {
				return err
			}

			args = append(args, value)
		}

		args = append(args, bar.Datetime)

		if _, err := stmt.Exec(args...); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to update row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit update", err)
	}

	s.log.Debug("columns upserted", zap.String("symbol", symbol), zap.Strings("columns", names))

	return nil
}

func (s *DuckDB) create(symbol string, series *types.Series) error {
	table := quote(tableName(symbol))

	columnDefs := []string{
		`"datetime" TIMESTAMP`,
		`"open" DOUBLE`, `"high" DOUBLE`, `"low" DOUBLE`, `"close" DOUBLE`, `"volume" DOUBLE`,
	}

	derivedNames := append(series.ColumnNames(), series.SignalNames()...)
	for _, name := range derivedNames {
		columnDefs = append(columnDefs, quote(name)+" DOUBLE")
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(columnDefs, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create table", err)
	}

	allColumns := append(append([]string{}, baseColumns...), derivedNames...)

	for lo := 0; lo < series.Len(); lo += insertBatchSize {
		hi := lo + insertBatchSize
		if hi > series.Len() {
			hi = series.Len()
		}

		insert := s.sq.Insert(tableName(symbol)).Columns(allColumns...)

		for i := lo; i < hi; i++ {
			bar := series.Bars[i]
			row := []any{bar.Datetime, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume}

			for _, name := range derivedNames {
				value, err := s.columnValue(series, name, i)
				if err != nil {
					return err
				}

				row = append(row, value)
			}

			insert = insert.Values(row...)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert", err)
		}

		if _, err := s.db.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert rows", err)
		}
	}

	s.log.Info("series cached", zap.String("symbol", symbol), zap.Int("bars", series.Len()))

	return nil
}

// columnValue encodes one cell for storage: NULL for null floats and
// absent signals, 1/0 for buy/sell.
func (s *DuckDB) columnValue(series *types.Series, name string, idx int) (any, error) {
	if strings.HasPrefix(name, types.SignalColumnPrefix) {
		signals, ok := series.Signal(name)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "signal column %s is missing", name)
		}

		if signals[idx].IsNone() {
			return nil, nil
		}

		return float64(signals[idx].Unwrap()), nil
	}

	column, ok := series.Column(name)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "column %s is missing", name)
	}

	if types.IsNull(column[idx]) {
		return nil, nil
	}

	return column[idx], nil
}

func isBaseColumn(name string) bool {
	for _, base := range baseColumns {
		if name == base {
			return true
		}
	}

	return false
}

func decodeFloats(values []sql.NullFloat64) []float64 {
	out := make([]float64, len(values))

	for i, v := range values {
		if v.Valid {
			out[i] = v.Float64
		} else {
			out[i] = types.Null()
		}
	}

	return out
}

func decodeSignals(values []sql.NullFloat64) []optional.Option[types.SignalValue] {
	out := make([]optional.Option[types.SignalValue], len(values))

	for i, v := range values {
		if v.Valid {
			out[i] = optional.Some(types.SignalValue(int(v.Float64)))
		}
	}

	return out
}
