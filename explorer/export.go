package explorer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"nanowallet/core/types"
)

// Export formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Row is one exported transaction.
type Row struct {
	ID            string
	Label         string
	Direction     string
	Amount        string
	Fee           string
	SenderID      string
	RecipientID   string
	Height        int64
	Confirmations int64
	Pending       bool
	Time          time.Time
}

// BuildRows flattens the pending and confirmed transactions of address into
// export rows, pending first.
func BuildRows(address string, pending, confirmed []types.Transaction) ([]Row, error) {
	rows := make([]Row, 0, len(pending)+len(confirmed))
	appendRows := func(txs []types.Transaction, isPending bool) error {
		for _, tx := range txs {
			amount, err := FormatAmount(tx.Amount)
			if err != nil {
				return fmt.Errorf("transaction %s: %w", tx.ID, err)
			}
			fee, err := FormatAmount(tx.Fee)
			if err != nil {
				return fmt.Errorf("transaction %s: %w", tx.ID, err)
			}
			rows = append(rows, Row{
				ID:            tx.ID,
				Label:         TransferLabel(tx, address),
				Direction:     Direction(tx, address),
				Amount:        amount,
				Fee:           fee,
				SenderID:      tx.SenderID,
				RecipientID:   tx.RecipientID,
				Height:        tx.Height,
				Confirmations: tx.Confirmations,
				Pending:       isPending,
				Time:          Timestamp(tx.Timestamp),
			})
		}
		return nil
	}
	if err := appendRows(pending, true); err != nil {
		return nil, err
	}
	if err := appendRows(confirmed, false); err != nil {
		return nil, err
	}
	return rows, nil
}

// Write encodes rows in the named format.
func Write(w io.Writer, format string, rows []Row) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return WriteCSV(w, rows)
	case FormatParquet:
		return WriteParquet(w, rows)
	default:
		return fmt.Errorf("explorer: unsupported export format %q", format)
	}
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "label", "direction", "amount", "fee", "sender_id", "recipient_id",
		"height", "confirmations", "pending", "time",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("explorer: write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ID,
			row.Label,
			row.Direction,
			row.Amount,
			row.Fee,
			row.SenderID,
			row.RecipientID,
			strconv.FormatInt(row.Height, 10),
			strconv.FormatInt(row.Confirmations, 10),
			strconv.FormatBool(row.Pending),
			row.Time.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("explorer: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("explorer: flush csv: %w", err)
	}
	return nil
}

type parquetRow struct {
	ID            string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label         string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	Direction     string `parquet:"name=direction, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount        string `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	Fee           string `parquet:"name=fee, type=BYTE_ARRAY, convertedtype=UTF8"`
	SenderID      string `parquet:"name=sender_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecipientID   string `parquet:"name=recipient_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Height        int64  `parquet:"name=height, type=INT64"`
	Confirmations int64  `parquet:"name=confirmations, type=INT64"`
	Pending       bool   `parquet:"name=pending, type=BOOLEAN"`
	Time          string `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// WriteParquet writes rows as a single snappy-compressed parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	fw := writerfile.NewWriterFile(w)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("explorer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		pr := &parquetRow{
			ID:            row.ID,
			Label:         row.Label,
			Direction:     row.Direction,
			Amount:        row.Amount,
			Fee:           row.Fee,
			SenderID:      row.SenderID,
			RecipientID:   row.RecipientID,
			Height:        row.Height,
			Confirmations: row.Confirmations,
			Pending:       row.Pending,
			Time:          row.Time.UTC().Format(time.RFC3339),
		}
		if err := pw.Write(pr); err != nil {
			pw.WriteStop()
			return fmt.Errorf("explorer: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("explorer: parquet flush: %w", err)
	}
	return nil
}
