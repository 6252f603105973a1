package sranked

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/the-dev-tools/orderedmodel/pkg/idwrap"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// statements holds the SQL generated once per model. Identifiers come from a
// validated mranked.Model and are always quoted.
type statements struct {
	get           string
	listPartition string
	listAll       string
	updateRank    string
	insert        string
	delete        string
}

func buildStatements(m mranked.Model) statements {
	q := mranked.Quote
	table, id, order := q(m.Table), q(m.IDColumn), q(m.OrderColumn)

	cols := []string{id, order}
	if m.Partitioned() {
		cols = append(cols, q(m.PartitionColumn))
	} else {
		cols = append(cols, "NULL")
	}
	if m.LabelColumn != "" {
		cols = append(cols, q(m.LabelColumn))
	} else {
		cols = append(cols, "NULL")
	}
	sel := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)

	var st statements
	st.get = fmt.Sprintf("%s WHERE %s = ?", sel, id)

	// IS matches NULL partitions too
	if m.Partitioned() {
		part := q(m.PartitionColumn)
		st.listPartition = fmt.Sprintf("%s WHERE %s IS ? ORDER BY %s, %s", sel, part, order, id)
		st.listAll = fmt.Sprintf("%s ORDER BY %s, %s, %s", sel, part, order, id)
	} else {
		st.listPartition = fmt.Sprintf("%s ORDER BY %s, %s", sel, order, id)
		st.listAll = st.listPartition
	}

	st.updateRank = fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", table, order, id)

	insCols := []string{id, order}
	if m.Partitioned() {
		insCols = append(insCols, q(m.PartitionColumn))
	}
	if m.LabelColumn != "" {
		insCols = append(insCols, q(m.LabelColumn))
	}
	st.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(insCols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(insCols)), ", "))

	st.delete = fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, id)
	return st
}

// partitionArg turns an optional partition into a driver value.
func partitionArg(p *idwrap.IDWrap) any {
	if p == nil {
		return nil
	}
	return p.Bytes()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (mranked.Record, error) {
	var (
		rec       mranked.Record
		partition []byte
		label     sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Order, &partition, &label); err != nil {
		return mranked.Record{}, err
	}
	if partition != nil {
		p, err := idwrap.NewFromBytes(partition)
		if err != nil {
			return mranked.Record{}, fmt.Errorf("partition of %s: %w", rec.ID, err)
		}
		rec.Partition = &p
	}
	rec.Label = label.String
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]mranked.Record, error) {
	defer rows.Close()
	out := make([]mranked.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ensureRowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoRecordFound)
	}
	return nil
}
