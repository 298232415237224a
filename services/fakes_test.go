package services_test

import (
	"context"
	"errors"
	"os"
	"strconv"

	"customer-option-service/models"
	"customer-option-service/reader"

	"github.com/google/uuid"
)

// ---- rows ----

type stubReader struct {
	rows []models.ImportRow
	err  error
}

func (r *stubReader) ReadCsv(_ context.Context, _ string) ([]models.ImportRow, error) {
	return r.rows, r.err
}

func (r *stubReader) IsRowValid(row models.ImportRow, fields models.RequiredFieldSpec) bool {
	return reader.NewFileReader(nil).IsRowValid(row, fields)
}

var priceColumns = []string{
	models.FieldCustomerOptionCode, models.FieldCustomerOptionValueCode, models.FieldChannelCode,
	models.FieldValidFrom, models.FieldValidTo, models.FieldType, models.FieldAmount, models.FieldPercent,
	models.FieldProductCode,
}

func priceRow(line int, productCode string) models.ImportRow {
	return models.ImportRow{
		Line:    line,
		Columns: priceColumns,
		Data: map[string]string{
			models.FieldCustomerOptionCode:      "coating",
			models.FieldCustomerOptionValueCode: "blue",
			models.FieldChannelCode:             "WEB",
			models.FieldType:                    "FIXED_AMOUNT",
			models.FieldAmount:                  "1500",
			models.FieldPercent:                 "0",
			models.FieldProductCode:             productCode,
		},
	}
}

func priceRows(n int) []models.ImportRow {
	rows := make([]models.ImportRow, n)
	for i := range rows {
		rows[i] = priceRow(i+1, "P"+strconv.Itoa(i))
	}
	return rows
}

// ---- products ----

type fakeProducts struct {
	products map[string]*models.Product
	err      error
	calls    map[string]int
}

func newFakeProducts(codes ...string) *fakeProducts {
	f := &fakeProducts{products: map[string]*models.Product{}, calls: map[string]int{}}
	for _, code := range codes {
		f.products[code] = &models.Product{ID: uuid.New(), Code: code}
	}
	return f
}

// anyProduct makes every code resolve.
type anyProduct struct {
	calls int
}

func (a *anyProduct) FindOneByCode(_ context.Context, code string) (*models.Product, error) {
	a.calls++
	return &models.Product{ID: uuid.New(), Code: code}, nil
}

func (f *fakeProducts) FindOneByCode(_ context.Context, code string) (*models.Product, error) {
	f.calls[code]++
	if f.err != nil {
		return nil, f.err
	}
	return f.products[code], nil
}

// ---- updater ----

type updaterFunc func(ctx context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error)

func (f updaterFunc) UpdateForProduct(ctx context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error) {
	return f(ctx, req)
}

func newPriceUpdater() updaterFunc {
	return func(_ context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error) {
		return &models.CustomerOptionValuePrice{Type: models.PriceType(req.Type), Amount: req.Amount, Percent: req.Percent}, nil
	}
}

// ---- price sink ----

type fakeSink struct {
	persisted []*models.CustomerOptionValuePrice
	flushes   int
	flushErr  error
	byID      map[uuid.UUID]*models.CustomerOptionValuePrice
	findErr   error
}

func (s *fakeSink) FindByID(_ context.Context, id uuid.UUID) (*models.CustomerOptionValuePrice, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byID[id], nil
}

func (s *fakeSink) Persist(price *models.CustomerOptionValuePrice) {
	s.persisted = append(s.persisted, price)
}

func (s *fakeSink) Flush(_ context.Context) error {
	s.flushes++
	return s.flushErr
}

// ---- customer options ----

type fakeOptions struct {
	option  *models.CustomerOption
	values  map[string]*models.CustomerOptionValue
	channel *models.Channel
	err     error
}

func newFakeOptions() *fakeOptions {
	option := &models.CustomerOption{ID: uuid.New(), Code: "coating", Type: models.OptionTypeSelect}
	values := map[string]*models.CustomerOptionValue{}
	for _, code := range []string{"blue", "red"} {
		values[code] = &models.CustomerOptionValue{ID: uuid.New(), Code: code, CustomerOptionID: option.ID, CustomerOption: option}
	}
	return &fakeOptions{
		option:  option,
		values:  values,
		channel: &models.Channel{ID: uuid.New(), Code: "WEB"},
	}
}

func (f *fakeOptions) FindOptionByCode(_ context.Context, code string) (*models.CustomerOption, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.option != nil && f.option.Code == code {
		return f.option, nil
	}
	return nil, nil
}

func (f *fakeOptions) FindValue(_ context.Context, optionCode, valueCode string) (*models.CustomerOptionValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.option == nil || f.option.Code != optionCode {
		return nil, nil
	}
	return f.values[valueCode], nil
}

func (f *fakeOptions) FindChannelByCode(_ context.Context, code string) (*models.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.channel != nil && f.channel.Code == code {
		return f.channel, nil
	}
	return nil, nil
}

// ---- sender ----

type sentMail struct {
	templateCode string
	recipients   []string
	data         map[string]any
	attachments  []string
	contents     []string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

// Send reads attachments right away since reporters delete them after sending.
func (s *fakeSender) Send(_ context.Context, templateCode string, recipients []string, data map[string]any, attachments ...string) error {
	mail := sentMail{templateCode: templateCode, recipients: recipients, data: data, attachments: attachments}
	for _, path := range attachments {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		mail.contents = append(mail.contents, string(b))
	}
	s.sent = append(s.sent, mail)
	return s.err
}

// ---- tokens ----

type fakeTokens struct {
	admin *models.AdminUser
}

func (f fakeTokens) CurrentAdmin(_ context.Context) *models.AdminUser { return f.admin }

var testAdmin = &models.AdminUser{ID: "42", Email: "admin@example.com", Role: "admin"}

// ---- import runs ----

type fakeRuns struct {
	created   []*models.PriceImportRun
	createErr error
	list      []models.PriceImportRun
	listErr   error
	filter    models.PriceImportRunFilter
}

func (r *fakeRuns) Create(_ context.Context, run *models.PriceImportRun) error {
	if r.createErr != nil {
		return r.createErr
	}
	run.ID = uuid.New()
	r.created = append(r.created, run)
	return nil
}

func (r *fakeRuns) FindAll(_ context.Context, filter models.PriceImportRunFilter) ([]models.PriceImportRun, int64, error) {
	r.filter = filter
	return r.list, int64(len(r.list)), r.listErr
}

// ---- SNS ----

type fakeSNS struct {
	messages [][]byte
	err      error
}

func (f *fakeSNS) Publish(_ context.Context, _ string, message []byte) error {
	f.messages = append(f.messages, message)
	return f.err
}

var errBoom = errors.New("boom")
