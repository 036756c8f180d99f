package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salestracker-backend/database"
	"salestracker-backend/middlewares"
	"salestracker-backend/models"
	"salestracker-backend/routes"
	"salestracker-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func amt(s string) utils.Amount {
	return utils.NewAmount(decimal.RequireFromString(s))
}

func setupApp(t *testing.T) *fiber.App {
	t.Setenv("JWT_SECRET", "test-secret")

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ArticleCategory{},
		&models.Article{},
		&models.Sale{},
		&models.IdempotencyKey{},
	))
	database.DB = db

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	routes.Register(app)
	return app
}

func createUser(t *testing.T, email string) (models.User, string) {
	user := models.User{FirstName: "Test", LastName: "User", Email: email}
	user.SetPassword("secret")
	require.NoError(t, database.DB.Create(&user).Error)

	token, err := middlewares.GenerateJWT(user.Id)
	require.NoError(t, err)
	return user, token
}

func seedCatalog(t *testing.T) (models.ArticleCategory, models.Article) {
	category := models.ArticleCategory{DisplayName: "Category_test"}
	require.NoError(t, database.DB.Create(&category).Error)

	article := models.Article{
		Code:              "ABC123",
		CategoryId:        category.Id,
		Name:              "ArticleTest1",
		ManufacturingCost: amt("100.00"),
	}
	require.NoError(t, database.DB.Create(&article).Error)
	return category, article
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return raw
}

type saleEnvelope struct {
	Status string `json:"status"`
	Sale   struct {
		Id               string    `json:"id"`
		Article          string    `json:"article"`
		Quantity         int       `json:"quantity"`
		UnitSellingPrice string    `json:"unit_selling_price"`
		Date             time.Time `json:"date"`
		Author           string    `json:"author"`
	} `json:"sale"`
}

func TestAuthRequired(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, "GET", "/sale/", "", nil)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, "POST", "/registration", "", map[string]string{
		"first_name":       "Jamie",
		"last_name":        "Doe",
		"email":            "jamie@example.com",
		"password":         "secret",
		"password_confirm": "secret",
	})
	assert.Equal(t, 201, resp.StatusCode)
	readBody(t, resp)

	resp = doJSON(t, app, "POST", "/login", "", map[string]string{
		"email":    "jamie@example.com",
		"password": "secret",
	})
	require.Equal(t, 200, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &login))
	require.NotEmpty(t, login.Token)

	// Issued token opens protected endpoints.
	resp = doJSON(t, app, "GET", "/sale/", login.Token, nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCreateArticle(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "author@example.com")
	category, _ := seedCatalog(t)

	resp := doJSON(t, app, "POST", "/article/", token, map[string]any{
		"code":               "XYZ789",
		"category":           category.Id,
		"name":               "ArticleTest2",
		"manufacturing_cost": "50.00",
	})
	require.Equal(t, 201, resp.StatusCode)

	var created models.Article
	require.NoError(t, json.Unmarshal(readBody(t, resp), &created))
	assert.Equal(t, "XYZ789", created.Code)
	assert.Equal(t, "50.00", created.ManufacturingCost.StringFixed(2))
	assert.Equal(t, "Category_test", created.Category.DisplayName)

	// Duplicate code is a validation failure.
	resp = doJSON(t, app, "POST", "/article/", token, map[string]any{
		"code":               "XYZ789",
		"category":           category.Id,
		"name":               "Other",
		"manufacturing_cost": "10.00",
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Unknown category as well.
	resp = doJSON(t, app, "POST", "/article/", token, map[string]any{
		"code":               "NEW001",
		"category":           9999,
		"name":               "Other",
		"manufacturing_cost": "10.00",
	})
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCreateSaleStampsDateAndAuthor(t *testing.T) {
	app := setupApp(t)
	user, token := createUser(t, "author@example.com")
	_, article := seedCatalog(t)

	// Client-supplied date/author must be ignored.
	resp := doJSON(t, app, "POST", "/sale/", token, map[string]any{
		"article":            article.Id,
		"quantity":           2,
		"unit_selling_price": "110.00",
		"date":               "1999-01-01T00:00:00Z",
		"author":             "someone-else",
	})
	require.Equal(t, 201, resp.StatusCode)

	var env saleEnvelope
	require.NoError(t, json.Unmarshal(readBody(t, resp), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, user.Id, env.Sale.Author)
	assert.Equal(t, "110.00", env.Sale.UnitSellingPrice)
	assert.WithinDuration(t, time.Now().UTC(), env.Sale.Date, 5*time.Second)

	var stored models.Sale
	require.NoError(t, database.DB.Where("id = ?", env.Sale.Id).First(&stored).Error)
	assert.Equal(t, user.Id, stored.AuthorId)
	assert.WithinDuration(t, time.Now().UTC(), stored.Date, 5*time.Second)
}

func TestCreateSaleValidation(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "author@example.com")
	_, article := seedCatalog(t)

	// Missing fields
	resp := doJSON(t, app, "POST", "/sale/", token, map[string]any{})
	assert.Equal(t, 400, resp.StatusCode)
	var fail struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &fail))
	assert.Equal(t, "fail", fail.Status)

	// Malformed price
	resp = doJSON(t, app, "POST", "/sale/", token, map[string]any{
		"article":            article.Id,
		"quantity":           1,
		"unit_selling_price": "not-a-number",
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Negative quantity
	resp = doJSON(t, app, "POST", "/sale/", token, map[string]any{
		"article":            article.Id,
		"quantity":           -1,
		"unit_selling_price": "10.00",
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Unknown article reference
	resp = doJSON(t, app, "POST", "/sale/", token, map[string]any{
		"article":            "no-such-article",
		"quantity":           1,
		"unit_selling_price": "10.00",
	})
	assert.Equal(t, 400, resp.StatusCode)

	// Unparseable body gets the same fail envelope as field errors
	req := httptest.NewRequest("POST", "/sale/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var parseFail struct {
		Status  string            `json:"status"`
		Message map[string]string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &parseFail))
	assert.Equal(t, "fail", parseFail.Status)
	assert.NotEmpty(t, parseFail.Message)
}

func TestSaleOwnershipGuard(t *testing.T) {
	app := setupApp(t)
	author, authorToken := createUser(t, "author@example.com")
	_, otherToken := createUser(t, "other@example.com")
	_, article := seedCatalog(t)

	sale := models.Sale{
		ArticleId:        article.Id,
		Quantity:         1,
		UnitSellingPrice: amt("110.00"),
		Date:             time.Now().UTC(),
		AuthorId:         author.Id,
	}
	require.NoError(t, database.DB.Create(&sale).Error)

	// Non-author PATCH is rejected and the record stays unchanged.
	resp := doJSON(t, app, "PATCH", "/sale/"+sale.Id, otherToken, map[string]any{
		"quantity": 99,
	})
	assert.Equal(t, 403, resp.StatusCode)

	var unchanged models.Sale
	require.NoError(t, database.DB.Where("id = ?", sale.Id).First(&unchanged).Error)
	assert.Equal(t, 1, unchanged.Quantity)
	assert.Equal(t, author.Id, unchanged.AuthorId)

	// Non-author DELETE is rejected too.
	resp = doJSON(t, app, "DELETE", "/sale/"+sale.Id, otherToken, nil)
	assert.Equal(t, 403, resp.StatusCode)
	require.NoError(t, database.DB.Where("id = ?", sale.Id).First(&unchanged).Error)

	// The author may update; date and author are re-stamped.
	resp = doJSON(t, app, "PATCH", "/sale/"+sale.Id, authorToken, map[string]any{
		"quantity": 3,
	})
	require.Equal(t, 200, resp.StatusCode)
	var env saleEnvelope
	require.NoError(t, json.Unmarshal(readBody(t, resp), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, 3, env.Sale.Quantity)
	assert.Equal(t, author.Id, env.Sale.Author)
	assert.WithinDuration(t, time.Now().UTC(), env.Sale.Date, 5*time.Second)

	// And the author may delete.
	resp = doJSON(t, app, "DELETE", "/sale/"+sale.Id, authorToken, nil)
	assert.Equal(t, 204, resp.StatusCode)
	err := database.DB.Where("id = ?", sale.Id).First(&unchanged).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSaleNotFound(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "author@example.com")

	resp := doJSON(t, app, "PATCH", "/sale/no-such-id", token, map[string]any{"quantity": 1})
	assert.Equal(t, 404, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/sale/no-such-id", token, nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestListSalesOrderedByDateDesc(t *testing.T) {
	app := setupApp(t)
	user, token := createUser(t, "author@example.com")
	_, article := seedCatalog(t)

	now := time.Now().UTC()
	var ids []string
	for _, age := range []time.Duration{2 * time.Hour, time.Hour, 0} {
		sale := models.Sale{
			ArticleId:        article.Id,
			Quantity:         1,
			UnitSellingPrice: amt("10.00"),
			Date:             now.Add(-age),
			AuthorId:         user.Id,
		}
		require.NoError(t, database.DB.Create(&sale).Error)
		ids = append(ids, sale.Id)
	}

	resp := doJSON(t, app, "GET", "/sale/", token, nil)
	require.Equal(t, 200, resp.StatusCode)

	var listed []struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &listed))
	require.Len(t, listed, 3)
	// Newest first
	assert.Equal(t, ids[2], listed[0].Id)
	assert.Equal(t, ids[1], listed[1].Id)
	assert.Equal(t, ids[0], listed[2].Id)
}

func TestSalesByArticleEndpoint(t *testing.T) {
	app := setupApp(t)
	user, token := createUser(t, "author@example.com")

	category := models.ArticleCategory{DisplayName: "Category_test"}
	require.NoError(t, database.DB.Create(&category).Error)

	article1 := models.Article{Code: "ABC123", CategoryId: category.Id, Name: "ArticleTest1",
		ManufacturingCost: amt("100")}
	article2 := models.Article{Code: "ABC456", CategoryId: category.Id, Name: "ArticleTest2",
		ManufacturingCost: amt("50")}
	noSales := models.Article{Code: "ABC789", CategoryId: category.Id, Name: "NeverSold",
		ManufacturingCost: amt("10")}
	for _, a := range []*models.Article{&article1, &article2, &noSales} {
		require.NoError(t, database.DB.Create(a).Error)
	}

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		require.NoError(t, database.DB.Create(&models.Sale{
			ArticleId: article1.Id, Quantity: 1,
			UnitSellingPrice: amt("110"),
			Date:             now.AddDate(0, 0, -i), AuthorId: user.Id,
		}).Error)
		require.NoError(t, database.DB.Create(&models.Sale{
			ArticleId: article2.Id, Quantity: i,
			UnitSellingPrice: amt("100"),
			Date:             now.AddDate(0, 0, -i), AuthorId: user.Id,
		}).Error)
	}

	resp := doJSON(t, app, "GET", "/sale_by_article", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	body := string(readBody(t, resp))

	var report map[string]struct {
		Category       string `json:"category"`
		LastSale       string `json:"last_sale"`
		NetMargin      string `json:"net_margin"`
		TotalSellPrice string `json:"total_sell_price"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Len(t, report, 2)

	assert.Equal(t, "4500.00", report["ArticleTest2"].TotalSellPrice)
	assert.Equal(t, "2250.00", report["ArticleTest2"].NetMargin)
	assert.Equal(t, "1100.00", report["ArticleTest1"].TotalSellPrice)
	assert.Equal(t, "100.00", report["ArticleTest1"].NetMargin)
	assert.Equal(t, "Category_test", report["ArticleTest1"].Category)
	assert.Equal(t, now.Format("2006-01-02"), report["ArticleTest1"].LastSale)
	assert.Equal(t, now.Format("2006-01-02"), report["ArticleTest2"].LastSale)

	// Article without sales never appears.
	_, present := report["NeverSold"]
	assert.False(t, present)

	// Higher revenue serializes first.
	assert.Less(t, strings.Index(body, `"ArticleTest2"`), strings.Index(body, `"ArticleTest1"`))

	// Idempotent with no intervening writes.
	resp = doJSON(t, app, "GET", "/sale_by_article", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, body, string(readBody(t, resp)))
}

func TestIdempotencyKeyReplay(t *testing.T) {
	app := setupApp(t)
	_, token := createUser(t, "author@example.com")
	_, article := seedCatalog(t)

	payload := map[string]any{
		"article":            article.Id,
		"quantity":           1,
		"unit_selling_price": "10.00",
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	send := func() *http.Response {
		req := httptest.NewRequest("POST", "/sale/", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "sale-once")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	first := readBody(t, send())
	second := readBody(t, send())
	assert.Equal(t, string(first), string(second))

	var count int64
	require.NoError(t, database.DB.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIdempotencyKeyReplayDelete(t *testing.T) {
	app := setupApp(t)
	user, token := createUser(t, "author@example.com")
	_, article := seedCatalog(t)

	sale := models.Sale{
		ArticleId:        article.Id,
		Quantity:         1,
		UnitSellingPrice: amt("10.00"),
		Date:             time.Now().UTC(),
		AuthorId:         user.Id,
	}
	require.NoError(t, database.DB.Create(&sale).Error)

	del := func() *http.Response {
		req := httptest.NewRequest("DELETE", "/sale/"+sale.Id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "delete-once")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, 204, del().StatusCode)

	// The bodyless 204 completes the key with a status alone; fiber's
	// plain-text status message must never land in the JSON column.
	var rec models.IdempotencyKey
	require.NoError(t, database.DB.Where("key = ?", "delete-once").First(&rec).Error)
	assert.Equal(t, 204, rec.ResponseStatus)
	assert.Empty(t, []byte(rec.ResponseBody))

	// Retrying replays the recorded status instead of re-running the
	// handler against the already deleted sale.
	assert.Equal(t, 204, del().StatusCode)

	var count int64
	require.NoError(t, database.DB.Model(&models.Sale{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
