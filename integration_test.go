package main

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"payment-transaction-manager/internal/config"
	"payment-transaction-manager/internal/server"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	activeAccount = "1234567890"
	brokeAccount  = "0000000001"
	billerCode    = "MERALCO"
	providerName  = "fakepay"
)

type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer *tcpostgres.PostgresContainer
	serverInstance    *server.Server
	baseURL           string
	client            *http.Client
	dbConnStr         string

	accountServer  *httptest.Server
	merchantServer *httptest.Server
	fraudServer    *httptest.Server
	feeServer      *httptest.Server
	postingServer  *httptest.Server
	providerServer *httptest.Server
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("payment_transactions"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	suite.dbConnStr, err = postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to get connection string: %s", err)
	}

	// Run migrations
	if err := suite.runMigrations(); err != nil {
		suite.T().Fatalf("Failed to run migrations: %s", err)
	}

	suite.startCollaborators()

	// Start the application server
	if err := suite.startApplicationServer(); err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}

	suite.client = &http.Client{
		Timeout: 30 * time.Second,
	}
}

// startCollaborators stands in for the account, merchant, fraud, fee,
// posting and provider services this service calls out to.
func (suite *IntegrationTestSuite) startCollaborators() {
	suite.accountServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimPrefix(r.URL.Path, "/accounts/")
		switch number {
		case activeAccount:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":            uuid.New(),
				"customerId":    uuid.New(),
				"accountNumber": activeAccount,
				"balance":       "1000.00",
				"currency":      "PHP",
				"active":        true,
			})
		case brokeAccount:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":            uuid.New(),
				"customerId":    uuid.New(),
				"accountNumber": brokeAccount,
				"balance":       "5.00",
				"currency":      "PHP",
				"active":        true,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	suite.merchantServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/merchants/") {
			code := strings.TrimPrefix(r.URL.Path, "/merchants/")
			if code != billerCode {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"name":         "Meralco",
				"code":         billerCode,
				"minimumLimit": "50.00",
				"maximumLimit": "50000.00",
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	// Amount 666.00 is the trigger for a fraud rejection.
	suite.fraudServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		status := "APPROVED"
		if req["amount"] == "666" || req["amount"] == "666.00" {
			status = "REJECTED"
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))

	suite.feeServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/reversals") {
			w.WriteHeader(http.StatusOK)
			return
		}
		amount := "10.00"
		if strings.Contains(r.URL.Path, "vendor") {
			amount = "5.00"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       uuid.New().String(),
			"amount":   amount,
			"currency": "PHP",
		})
	}))

	suite.postingServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"batchId": uuid.New().String()})
	}))

	suite.providerServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"providerId": "prov-" + uuid.New().String(),
			"status":     "PENDING",
		})
	}))
}

func (suite *IntegrationTestSuite) runMigrations() error {
	db, err := sql.Open("postgres", suite.dbConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationFiles, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migration files by name (version)
	sort.Slice(migrationFiles, func(i, j int) bool {
		return migrationFiles[i].Name() < migrationFiles[j].Name()
	})

	for _, file := range migrationFiles {
		if strings.HasSuffix(file.Name(), ".sql") {
			migrationPath := filepath.Join("migrations", file.Name())
			migrationSQL, err := migrationsFS.ReadFile(migrationPath)
			if err != nil {
				return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
			}

			if _, err := db.Exec(string(migrationSQL)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
			}
		}
	}

	return nil
}

func (suite *IntegrationTestSuite) startApplicationServer() error {
	ctx := context.Background()

	host, err := suite.postgresContainer.Host(ctx)
	if err != nil {
		return err
	}
	mappedPort, err := suite.postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		return err
	}

	cfg := &config.Config{
		ServerPort: "0", // Let OS choose a free port

		DBHost:     host,
		DBPort:     mappedPort.Port(),
		DBUser:     "postgres",
		DBPassword: "password",
		DBName:     "payment_transactions",
		DBSSLMode:  "disable",

		AccountServiceURL:  suite.accountServer.URL,
		MerchantServiceURL: suite.merchantServer.URL,
		FraudServiceURL:    suite.fraudServer.URL,
		FeeServiceURL:      suite.feeServer.URL,
		PostingServiceURL:  suite.postingServer.URL,
		ClientTimeout:      10 * time.Second,

		Providers: []config.ProviderConfig{
			{
				Name:  providerName,
				URL:   suite.providerServer.URL,
				Types: []string{"BILL_PAYMENT", "AIRTIME_LOAD"},
			},
		},
	}

	serverInstance, port, err := server.StartServer(cfg)
	if err != nil {
		return err
	}

	suite.serverInstance = serverInstance
	suite.baseURL = "http://localhost:" + port

	return suite.waitForServerReady()
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}

	for _, s := range []*httptest.Server{
		suite.accountServer, suite.merchantServer, suite.fraudServer,
		suite.feeServer, suite.postingServer, suite.providerServer,
	} {
		if s != nil {
			s.Close()
		}
	}

	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

func (suite *IntegrationTestSuite) postJSON(path string, body map[string]interface{}) (int, map[string]interface{}) {
	payload, _ := json.Marshal(body)
	resp, err := suite.client.Post(suite.baseURL+path, "application/json", bytes.NewReader(payload))
	require.NoError(suite.T(), err)

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var parsed map[string]interface{}
	json.Unmarshal(respBody, &parsed)
	suite.T().Logf("POST %s -> %d %s", path, resp.StatusCode, respBody)
	return resp.StatusCode, parsed
}

func (suite *IntegrationTestSuite) getTransaction(id string) (int, map[string]interface{}) {
	resp, err := suite.client.Get(suite.baseURL + "/transactions/" + id)
	require.NoError(suite.T(), err)

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var parsed map[string]interface{}
	json.Unmarshal(respBody, &parsed)
	return resp.StatusCode, parsed
}

func (suite *IntegrationTestSuite) createBillPayment(id, amount string) (int, map[string]interface{}) {
	return suite.postJSON("/transactions/bill-payments", map[string]interface{}{
		"id":             id,
		"account_number": activeAccount,
		"amount":         amount,
		"currency":       "PHP",
		"biller_code":    billerCode,
	})
}

func (suite *IntegrationTestSuite) postingResponse(path, requestID, transactionID, batchStatus string) (int, map[string]interface{}) {
	return suite.postJSON(path, map[string]interface{}{
		"request_id":     requestID,
		"transaction_id": transactionID,
		"batch_id":       uuid.New().String(),
		"batch_status":   batchStatus,
		"product":        "BILL_PAYMENT",
		"provider":       providerName,
	})
}

func (suite *IntegrationTestSuite) transactionStatus(id string) string {
	code, body := suite.getTransaction(id)
	if code != http.StatusOK {
		return ""
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	status, _ := data["status"].(string)
	return status
}

// waitForReservation blocks until the detached reservation task has
// recorded its posting batch on the transaction.
func (suite *IntegrationTestSuite) waitForReservation(id string) {
	require.Eventually(suite.T(), func() bool {
		code, body := suite.getTransaction(id)
		if code != http.StatusOK {
			return false
		}
		data, ok := body["data"].(map[string]interface{})
		if !ok {
			return false
		}
		return data["posting_details"] != nil
	}, 10*time.Second, 100*time.Millisecond, "reservation batch never recorded")
}

func (suite *IntegrationTestSuite) stepHealthCheck() {
	resp, err := suite.client.Get(suite.baseURL + "/health")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// stepHappyPath follows a bill payment all the way through reservation,
// provider submission, settlement and the terminal SUCCESS status.
func (suite *IntegrationTestSuite) stepHappyPath() {
	txID := uuid.New().String()

	code, body := suite.createBillPayment(txID, "200.00")
	require.Equal(suite.T(), http.StatusCreated, code)

	data := body["data"].(map[string]interface{})
	assert.Equal(suite.T(), txID, data["transaction_id"])
	assert.Equal(suite.T(), "PENDING", data["status"])

	suite.waitForReservation(txID)

	// Ledger accepts the reservation; payment goes out to the provider.
	reservationRequestID := uuid.New().String()
	code, _ = suite.postingResponse("/postings/reservations/responses", reservationRequestID, txID, "ACCEPTED")
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "SENT_TO_PROVIDER", suite.transactionStatus(txID))

	// Provider confirms; settlement batch opens.
	code, _ = suite.postJSON("/providers/payments/responses", map[string]interface{}{
		"transaction_id": txID,
		"provider_id":    "prov-123",
		"status":         "SUCCESS",
	})
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "PENDING_SETTLEMENT", suite.transactionStatus(txID))

	// Ledger settles.
	code, _ = suite.postingResponse("/postings/settlements/responses", uuid.New().String(), txID, "ACCEPTED")
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "SUCCESS", suite.transactionStatus(txID))
}

// stepDuplicateCallback redelivers a reservation response and verifies
// the phase does not execute twice.
func (suite *IntegrationTestSuite) stepDuplicateCallback() {
	txID := uuid.New().String()

	code, _ := suite.createBillPayment(txID, "150.00")
	require.Equal(suite.T(), http.StatusCreated, code)
	suite.waitForReservation(txID)

	requestID := uuid.New().String()
	code, _ = suite.postingResponse("/postings/reservations/responses", requestID, txID, "ACCEPTED")
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "SENT_TO_PROVIDER", suite.transactionStatus(txID))

	// Same request id again: accepted, nothing re-executed. A second
	// execution would fail the status precondition, so 200 here proves
	// the phase was skipped.
	code, _ = suite.postingResponse("/postings/reservations/responses", requestID, txID, "ACCEPTED")
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "SENT_TO_PROVIDER", suite.transactionStatus(txID))
}

// stepRejectedReservation drives the failure path: ledger rejects the
// reservation, transaction fails and fees zero out.
func (suite *IntegrationTestSuite) stepRejectedReservation() {
	txID := uuid.New().String()

	code, _ := suite.createBillPayment(txID, "120.00")
	require.Equal(suite.T(), http.StatusCreated, code)
	suite.waitForReservation(txID)

	code, _ = suite.postingResponse("/postings/reservations/responses", uuid.New().String(), txID, "REJECTED")
	require.Equal(suite.T(), http.StatusOK, code)
	assert.Equal(suite.T(), "FAILED", suite.transactionStatus(txID))

	_, body := suite.getTransaction(txID)
	data := body["data"].(map[string]interface{})
	customerFee := data["customer_fee"].(map[string]interface{})
	assert.Equal(suite.T(), "0", customerFee["amount"])
}

func (suite *IntegrationTestSuite) stepFraudRejected() {
	txID := uuid.New().String()

	code, body := suite.createBillPayment(txID, "666.00")
	assert.Equal(suite.T(), http.StatusForbidden, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "fraud_rejected", errorInfo["code"])

	// Rejection is persisted, not dropped.
	assert.Equal(suite.T(), "FAILED", suite.transactionStatus(txID))
}

func (suite *IntegrationTestSuite) stepValidationViolations() {
	code, body := suite.postJSON("/transactions/bill-payments", map[string]interface{}{
		"id":             uuid.New().String(),
		"account_number": brokeAccount,
		"amount":         "10.00",
		"currency":       "PHP",
		"biller_code":    billerCode,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "validation_failed", errorInfo["code"])

	// Balance and minimum-limit violations are reported together.
	violations := errorInfo["violations"].([]interface{})
	assert.Len(suite.T(), violations, 2)
}

func (suite *IntegrationTestSuite) stepUnknownBiller() {
	code, body := suite.postJSON("/transactions/bill-payments", map[string]interface{}{
		"id":             uuid.New().String(),
		"account_number": activeAccount,
		"amount":         "100.00",
		"currency":       "PHP",
		"biller_code":    "NOPE",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "validation_failed", errorInfo["code"])
}

func (suite *IntegrationTestSuite) stepTransactionNotFound() {
	code, body := suite.getTransaction(uuid.New().String())
	assert.Equal(suite.T(), http.StatusNotFound, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "transaction_not_found", errorInfo["code"])
}

func (suite *IntegrationTestSuite) stepDuplicateTransaction() {
	txID := uuid.New().String()

	code, _ := suite.createBillPayment(txID, "100.00")
	require.Equal(suite.T(), http.StatusCreated, code)

	code, body := suite.createBillPayment(txID, "100.00")
	assert.Equal(suite.T(), http.StatusConflict, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "duplicate_transaction", errorInfo["code"])
}

// stepCustomerFeeCallback records the ledger correlation for the
// customer fee and proves redelivery leaves the row untouched. The
// phase mark and the fee write go through one database transaction.
func (suite *IntegrationTestSuite) stepCustomerFeeCallback() {
	txID := uuid.New().String()

	code, _ := suite.createBillPayment(txID, "130.00")
	require.Equal(suite.T(), http.StatusCreated, code)
	suite.waitForReservation(txID)

	feeCallback := map[string]interface{}{
		"request_id":     "fee-posting-" + txID,
		"transaction_id": txID,
		"batch_id":       "fee-batch-" + txID,
		"batch_status":   "ACCEPTED",
		"product":        "BILL_PAYMENT",
		"provider":       providerName,
	}
	code, _ = suite.postJSON("/postings/customer-fees/responses", feeCallback)
	require.Equal(suite.T(), http.StatusOK, code)

	_, body := suite.getTransaction(txID)
	data := body["data"].(map[string]interface{})
	customerFee := data["customer_fee"].(map[string]interface{})
	assert.Equal(suite.T(), "fee-posting-"+txID, customerFee["posting_id"])
	assert.Equal(suite.T(), "fee-batch-"+txID, customerFee["batch_id"])
	version := data["version"]

	// Redelivery with the same request id changes nothing.
	code, _ = suite.postJSON("/postings/customer-fees/responses", feeCallback)
	require.Equal(suite.T(), http.StatusOK, code)

	_, body = suite.getTransaction(txID)
	data = body["data"].(map[string]interface{})
	assert.Equal(suite.T(), version, data["version"])
}

func (suite *IntegrationTestSuite) stepUnregisteredRoute() {
	txID := uuid.New().String()

	code, _ := suite.createBillPayment(txID, "100.00")
	require.Equal(suite.T(), http.StatusCreated, code)
	suite.waitForReservation(txID)

	code, body := suite.postJSON("/postings/reservations/responses", map[string]interface{}{
		"request_id":     uuid.New().String(),
		"transaction_id": txID,
		"batch_id":       uuid.New().String(),
		"batch_status":   "ACCEPTED",
		"product":        "BILL_PAYMENT",
		"provider":       "unknown-provider",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, code)

	errorInfo := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "validation_failed", errorInfo["code"])
}

func (suite *IntegrationTestSuite) TestFlow() {
	if testing.Short() {
		suite.T().Skip("Skipping integration test in short mode")
	}

	suite.stepHealthCheck()
	suite.stepHappyPath()
	suite.stepDuplicateCallback()
	suite.stepRejectedReservation()
	suite.stepFraudRejected()
	suite.stepValidationViolations()
	suite.stepUnknownBiller()
	suite.stepTransactionNotFound()
	suite.stepDuplicateTransaction()
	suite.stepCustomerFeeCallback()
	suite.stepUnregisteredRoute()
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
