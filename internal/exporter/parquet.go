package exporter

import (
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"factorcli/internal/dataprocessing"
	"factorcli/internal/errors"
)

// factorRecord is the fixed Parquet schema of a joined factor table.
// Factor columns are OPTIONAL so missing values round-trip as nulls.
type factorRecord struct {
	Date  string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MktRF *float64 `parquet:"name=MKT_RF, type=DOUBLE, repetitiontype=OPTIONAL"`
	SMB   *float64 `parquet:"name=SMB, type=DOUBLE, repetitiontype=OPTIONAL"`
	HML   *float64 `parquet:"name=HML, type=DOUBLE, repetitiontype=OPTIONAL"`
	RMW   *float64 `parquet:"name=RMW, type=DOUBLE, repetitiontype=OPTIONAL"`
	CMA   *float64 `parquet:"name=CMA, type=DOUBLE, repetitiontype=OPTIONAL"`
	Mom   *float64 `parquet:"name=Mom, type=DOUBLE, repetitiontype=OPTIONAL"`
	RF    *float64 `parquet:"name=RF, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// WriteParquet serializes a canonical joined table to a Parquet file.
func WriteParquet(path string, table *dataprocessing.MonthlyTable) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrap(errors.CodeExportFailed, "failed to create parquet file", err).
			WithContext("path", path)
	}

	pw, err := writer.NewParquetWriter(fw, new(factorRecord), 4)
	if err != nil {
		_ = fw.Close()
		return errors.Wrap(errors.CodeExportFailed, "failed to create parquet writer", err).
			WithContext("path", path)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range table.Rows {
		rec := factorRecord{Date: formatDate(row.Date)}
		rec.MktRF = optional(table.Value(i, "MKT_RF"))
		rec.SMB = optional(table.Value(i, "SMB"))
		rec.HML = optional(table.Value(i, "HML"))
		rec.RMW = optional(table.Value(i, "RMW"))
		rec.CMA = optional(table.Value(i, "CMA"))
		rec.Mom = optional(table.Value(i, "Mom"))
		rec.RF = optional(table.Value(i, "RF"))

		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return errors.Wrap(errors.CodeExportFailed, "failed to write parquet row", err).
				WithContext("path", path).
				WithContext("row", i)
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return errors.Wrap(errors.CodeExportFailed, "failed to finalize parquet file", err).
			WithContext("path", path)
	}
	return fw.Close()
}

// ReadParquet loads a Parquet file written by WriteParquet back into a
// canonical table. Used to verify round-trips.
func ReadParquet(path string) (*dataprocessing.MonthlyTable, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "failed to open parquet file", err).
			WithContext("path", path)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(factorRecord), 4)
	if err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "failed to create parquet reader", err).
			WithContext("path", path)
	}
	defer pr.ReadStop()

	recs := make([]factorRecord, pr.GetNumRows())
	if err := pr.Read(&recs); err != nil {
		return nil, errors.Wrap(errors.CodeExportFailed, "failed to read parquet rows", err).
			WithContext("path", path)
	}

	table := dataprocessing.NewMonthlyTable(dataprocessing.CanonicalColumns)
	for _, rec := range recs {
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, errors.Wrap(errors.CodeExportFailed, "parquet file carries an unparseable date", err).
				WithContext("path", path).
				WithContext("date", rec.Date)
		}
		table.AppendRow(date, map[string]float64{
			"MKT_RF": fromOptional(rec.MktRF),
			"SMB":    fromOptional(rec.SMB),
			"HML":    fromOptional(rec.HML),
			"RMW":    fromOptional(rec.RMW),
			"CMA":    fromOptional(rec.CMA),
			"Mom":    fromOptional(rec.Mom),
			"RF":     fromOptional(rec.RF),
		})
	}
	return table, nil
}

// optional maps the in-memory missing marker onto a Parquet null.
func optional(v float64) *float64 {
	if dataprocessing.IsMissing(v) {
		return nil
	}
	return &v
}

func fromOptional(v *float64) float64 {
	if v == nil {
		return dataprocessing.Missing()
	}
	return *v
}
