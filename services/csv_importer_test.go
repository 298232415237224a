package services_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"customer-option-service/models"
	"customer-option-service/reader"
	"customer-option-service/sender"
	"customer-option-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVImporter_ThreeRowsOneMissingProductCode(t *testing.T) {
	source := writeSource(t, strings.Join([]string{
		"customer_option_code,customer_option_value_code,channel_code,valid_from,valid_to,type,amount,percent,product_code",
		"coating,blue,WEB,,,FIXED_AMOUNT,1500,0,FRAME-1",
		`coating,red,WEB,,,FIXED_AMOUNT,900,0,`,
		"coating,red,WEB,2024-01-01,2024-12-31,PERCENT,0,0.15,FRAME-1",
	}, "\n"))

	products := newFakeProducts("FRAME-1")
	sink := &fakeSink{}
	mail := &fakeSender{}
	tempDir := t.TempDir()
	reporter := services.NewCSVFailureReporter(mail, fakeTokens{admin: testAdmin}, tempDir, zap.NewNop())
	importer := services.NewCSVImporter(reader.NewFileReader(nil), products, services.NewPriceUpdater(newFakeOptions()), sink, reporter, 0, zap.NewNop())

	result, err := importer.Import(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported())
	assert.Equal(t, 1, result.Failed())
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, "2", result.Errors()[0].Key)
	assert.Equal(t, "Data is invalid", result.Errors()[0].Message)

	assert.Len(t, sink.persisted, 2)
	assert.Equal(t, 1, sink.flushes)
	assert.Equal(t, 1, products.calls["FRAME-1"])

	require.Len(t, mail.sent, 1)
	sent := mail.sent[0]
	assert.Equal(t, sender.TemplateFailedCSVPriceImport, sent.templateCode)
	assert.Equal(t, []string{"admin@example.com"}, sent.recipients)
	assert.Equal(t, map[string]string{"2": "Data is invalid"}, sent.data["failed"])

	require.Len(t, sent.contents, 1)
	records, err := csv.NewReader(strings.NewReader(sent.contents[0])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, append([]string{"Line", "Error"}, priceColumns...), records[0])
	assert.Equal(t, "2", records[1][0])
	assert.Equal(t, "Data is invalid", records[1][1])
	assert.Equal(t, "red", records[1][3])

	_, statErr := os.Stat(sent.attachments[0])
	assert.True(t, os.IsNotExist(statErr), "attachment must be removed after sending")
}

func TestCSVImporter_FlushEveryHundredPlusFinal(t *testing.T) {
	cases := []struct {
		rows    int
		flushes int
	}{
		{rows: 0, flushes: 1},
		{rows: 99, flushes: 1},
		{rows: 100, flushes: 2},
		{rows: 200, flushes: 3},
		{rows: 250, flushes: 3},
	}

	for _, tc := range cases {
		sink := &fakeSink{}
		mail := &fakeSender{}
		reporter := services.NewCSVFailureReporter(mail, fakeTokens{admin: testAdmin}, t.TempDir(), zap.NewNop())
		importer := services.NewCSVImporter(&stubReader{rows: priceRows(tc.rows)}, &anyProduct{}, newPriceUpdater(), sink, reporter, services.DefaultBatchSize, zap.NewNop())

		result, err := importer.Import(context.Background(), "prices.csv")
		require.NoError(t, err)
		assert.Equal(t, tc.rows, result.Imported())
		assert.Equal(t, tc.flushes, sink.flushes, "rows=%d", tc.rows)
		assert.Empty(t, mail.sent, "no report without failures")
	}
}

func TestCSVImporter_FailingRowsDoNotStopTheRun(t *testing.T) {
	rows := priceRows(10)
	rows[3].Data[models.FieldAmount] = "lots"
	rows[6].Data[models.FieldType] = "BARTER"

	updater := updaterFunc(func(_ context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error) {
		if _, err := models.ParsePriceType(req.Type); err != nil {
			return nil, &services.PriceUpdateError{Message: err.Error()}
		}
		return &models.CustomerOptionValuePrice{}, nil
	})
	products := newFakeProducts()
	for _, r := range rows {
		if r.Line != 9 {
			products.products[r.Get(models.FieldProductCode)] = &models.Product{Code: r.Get(models.FieldProductCode)}
		}
	}

	sink := &fakeSink{}
	mail := &fakeSender{}
	reporter := services.NewCSVFailureReporter(mail, fakeTokens{admin: testAdmin}, t.TempDir(), zap.NewNop())
	importer := services.NewCSVImporter(&stubReader{rows: rows}, products, updater, sink, reporter, 0, zap.NewNop())

	result, err := importer.Import(context.Background(), "prices.csv")
	require.NoError(t, err)

	assert.Equal(t, 7, result.Imported())
	assert.Equal(t, 3, result.Failed())
	assert.Equal(t, len(rows), result.Imported()+result.Failed())
	assert.Equal(t, map[string]string{
		"4": `invalid amount "lots"`,
		"7": `invalid price type "BARTER"`,
		"9": `Product with code "P8" not found`,
	}, result.FailureMessages())
	assert.Len(t, mail.sent, 1)
}

func TestCSVImporter_CachesProductLookups(t *testing.T) {
	rows := []models.ImportRow{priceRow(1, "A"), priceRow(2, "MISSING"), priceRow(3, "A"), priceRow(4, "MISSING")}
	products := newFakeProducts("A")

	importer := services.NewCSVImporter(&stubReader{rows: rows}, products, newPriceUpdater(), &fakeSink{},
		services.NewCSVFailureReporter(&fakeSender{}, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	result, err := importer.Import(context.Background(), "prices.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported())
	assert.Equal(t, 1, products.calls["A"])
	assert.Equal(t, 1, products.calls["MISSING"])
}

func TestCSVImporter_LaterRowsSeeEarlierPrices(t *testing.T) {
	first := priceRow(1, "FRAME-1")
	first.Data[models.FieldValidFrom] = "2024-01-01"
	first.Data[models.FieldValidTo] = "2024-06-30"
	overlapping := priceRow(2, "FRAME-1")
	overlapping.Data[models.FieldValidFrom] = "2024-06-01"
	overlapping.Data[models.FieldValidTo] = "2024-12-31"

	products := newFakeProducts("FRAME-1")
	sink := &fakeSink{}
	importer := services.NewCSVImporter(&stubReader{rows: []models.ImportRow{first, overlapping}}, products,
		services.NewPriceUpdater(newFakeOptions()), sink,
		services.NewCSVFailureReporter(&fakeSender{}, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	result, err := importer.Import(context.Background(), "prices.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported())
	require.Equal(t, 1, result.Failed())
	assert.Contains(t, result.Errors()[0].Message, "overlaps an existing price")
	assert.Len(t, products.products["FRAME-1"].CustomerOptionValuePrices, 1)
}

func TestCSVImporter_NoAdminSkipsReport(t *testing.T) {
	rows := []models.ImportRow{priceRow(1, "MISSING")}
	mail := &fakeSender{}
	importer := services.NewCSVImporter(&stubReader{rows: rows}, newFakeProducts(), newPriceUpdater(), &fakeSink{},
		services.NewCSVFailureReporter(mail, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	result, err := importer.Import(context.Background(), "prices.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed())
	assert.Empty(t, mail.sent)
}

func TestCSVImporter_SourceError(t *testing.T) {
	sink := &fakeSink{}
	importer := services.NewCSVImporter(&stubReader{err: errBoom}, newFakeProducts(), newPriceUpdater(), sink,
		services.NewCSVFailureReporter(&fakeSender{}, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	_, err := importer.Import(context.Background(), "prices.csv")
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, sink.flushes)
}

func TestCSVImporter_ProductLookupErrorAborts(t *testing.T) {
	products := newFakeProducts()
	products.err = errBoom
	sink := &fakeSink{}
	importer := services.NewCSVImporter(&stubReader{rows: priceRows(3)}, products, newPriceUpdater(), sink,
		services.NewCSVFailureReporter(&fakeSender{}, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	_, err := importer.Import(context.Background(), "prices.csv")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, sink.persisted)
}

func TestCSVImporter_FlushErrorAborts(t *testing.T) {
	sink := &fakeSink{flushErr: errBoom}
	importer := services.NewCSVImporter(&stubReader{rows: priceRows(2)}, &anyProduct{}, newPriceUpdater(), sink,
		services.NewCSVFailureReporter(&fakeSender{}, fakeTokens{}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	_, err := importer.Import(context.Background(), "prices.csv")
	assert.ErrorIs(t, err, errBoom)
}

func TestCSVImporter_MailErrorPropagates(t *testing.T) {
	mail := &fakeSender{err: errBoom}
	importer := services.NewCSVImporter(&stubReader{rows: []models.ImportRow{priceRow(1, "MISSING")}}, newFakeProducts(), newPriceUpdater(), &fakeSink{},
		services.NewCSVFailureReporter(mail, fakeTokens{admin: testAdmin}, t.TempDir(), zap.NewNop()), 0, zap.NewNop())

	_, err := importer.Import(context.Background(), "prices.csv")
	assert.ErrorIs(t, err, errBoom)
	require.Len(t, mail.sent, 1)
	_, statErr := os.Stat(mail.sent[0].attachments[0])
	assert.True(t, os.IsNotExist(statErr))
}
