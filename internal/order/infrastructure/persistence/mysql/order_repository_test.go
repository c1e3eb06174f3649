package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/db"
)

func newTestDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, smock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return &db.DB{DB: gdb}, smock
}

func testOrder() *domain.Order {
	return &domain.Order{
		OrderID:      "order-1",
		Number:       1001,
		UserID:       "u1",
		AddressID:    "addr1",
		Status:       domain.StatusPending,
		Total:        decimal.RequireFromString("179.70"),
		ShippingCost: decimal.RequireFromString("19.90"),
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Produto p1", Quantity: 2, UnitPrice: decimal.RequireFromString("79.90"), TotalPrice: decimal.RequireFromString("159.80")},
		},
	}
}

func TestCreateWithItems(t *testing.T) {
	database, smock := newTestDB(t)
	repo := NewOrderRepository(database)

	smock.ExpectBegin()
	smock.ExpectExec("INSERT INTO `orders`").WillReturnResult(sqlmock.NewResult(1, 1))
	smock.ExpectExec("INSERT INTO `order_items`").WillReturnResult(sqlmock.NewResult(1, 1))
	smock.ExpectExec("UPDATE `products` SET stock = stock - \\? WHERE product_id = \\? AND stock >= \\?").
		WithArgs(2, "p1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	err := repo.CreateWithItems(context.Background(), testOrder(), []domain.StockDecrement{
		{ProductID: "p1", Quantity: 2},
	})
	assert.NoError(t, err)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestCreateWithItemsInsufficientStock(t *testing.T) {
	database, smock := newTestDB(t)
	repo := NewOrderRepository(database)

	smock.ExpectBegin()
	smock.ExpectExec("INSERT INTO `orders`").WillReturnResult(sqlmock.NewResult(1, 1))
	smock.ExpectExec("INSERT INTO `order_items`").WillReturnResult(sqlmock.NewResult(1, 1))
	// 条件更新未命中任何行:库存不足,整个事务回滚
	smock.ExpectExec("UPDATE `products` SET stock = stock - \\?").
		WithArgs(2, "p1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	smock.ExpectRollback()

	err := repo.CreateWithItems(context.Background(), testOrder(), []domain.StockDecrement{
		{ProductID: "p1", Quantity: 2},
	})
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestCancelAndRestock(t *testing.T) {
	database, smock := newTestDB(t)
	repo := NewOrderRepository(database)

	smock.ExpectBegin()
	smock.ExpectQuery("SELECT \\* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "user_id", "status"}).
			AddRow(1, "order-1", "u1", "PENDING"))
	smock.ExpectQuery("SELECT \\* FROM `order_items`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).
			AddRow(1, 1, "p1", 2))
	smock.ExpectExec("UPDATE `orders` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec("UPDATE `products` SET stock = stock \\+ \\? WHERE product_id = \\?").
		WithArgs(2, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	order, err := repo.CancelAndRestock(context.Background(), "order-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestCancelAndRestockNotFound(t *testing.T) {
	database, smock := newTestDB(t)
	repo := NewOrderRepository(database)

	smock.ExpectBegin()
	smock.ExpectQuery("SELECT \\* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	smock.ExpectRollback()

	_, err := repo.CancelAndRestock(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSetPaidIdempotent(t *testing.T) {
	database, smock := newTestDB(t)
	repo := NewOrderRepository(database)

	// 已非 PENDING 的订单不再变更,重复回调不报错
	smock.ExpectBegin()
	smock.ExpectExec("UPDATE `orders` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	smock.ExpectCommit()

	err := repo.SetPaid(context.Background(), "order-1", "pi_1")
	assert.NoError(t, err)
	assert.NoError(t, smock.ExpectationsWereMet())
}
