// 开发环境种子数据:管理员/测试用户、分类与示例商品,可重复执行
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Init(db.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&userdomain.User{},
		&userdomain.Address{},
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	); err != nil {
		logger.Fatal(ctx, "Failed to run migrations", "error", err)
	}

	if err := seed(ctx, database); err != nil {
		logger.Fatal(ctx, "Seed failed", "error", err)
	}
	logger.Info(ctx, "Seed completed",
		"admin", "admin@azulstreet.com.br / admin123",
		"customer", "cliente@teste.com / cliente123")
}

func seed(ctx context.Context, database *db.DB) error {
	admin, err := seedUser(ctx, database, "admin@azulstreet.com.br", "admin123", "Administrador", userdomain.RoleAdmin, "")
	if err != nil {
		return err
	}
	logger.Info(ctx, "Admin user ready", "email", admin.Email)

	customer, err := seedUser(ctx, database, "cliente@teste.com", "cliente123", "Cliente Teste", userdomain.RoleCustomer, "11999999999")
	if err != nil {
		return err
	}

	var addrCount int64
	if err := database.WithContext(ctx).Model(&userdomain.Address{}).
		Where("user_id = ?", customer.UserID).Count(&addrCount).Error; err != nil {
		return err
	}
	if addrCount == 0 {
		address := &userdomain.Address{
			AddressID:  uuid.NewString(),
			UserID:     customer.UserID,
			Street:     "Rua das Flores",
			Number:     "123",
			Complement: "Apto 45",
			District:   "Centro",
			City:       "São Paulo",
			State:      "SP",
			ZipCode:    "01234-567",
			IsMain:     true,
		}
		if err := database.WithContext(ctx).Create(address).Error; err != nil {
			return fmt.Errorf("failed to seed address: %w", err)
		}
	}

	categories := map[string]string{
		"Camisetas":  "/uploads/cat-camisetas.jpg",
		"Calças":     "/uploads/cat-calcas.jpg",
		"Vestidos":   "/uploads/cat-vestidos.jpg",
		"Acessórios": "/uploads/cat-acessorios.jpg",
		"Calçados":   "/uploads/cat-calcados.jpg",
	}
	categoryIDs := make(map[string]uint, len(categories))
	for name, image := range categories {
		category, err := seedCategory(ctx, database, name, image)
		if err != nil {
			return err
		}
		categoryIDs[category.Slug] = category.ID
	}

	products := []struct {
		name        string
		description string
		price       string
		stock       int
		category    string
		images      []string
	}{
		{"Camiseta Básica Azul", "Camiseta básica 100% algodão na cor azul. Confortável e versátil para o dia a dia.",
			"79.90", 50, "camisetas", []string{"/uploads/camiseta-azul-1.jpg", "/uploads/camiseta-azul-2.jpg"}},
		{"Camiseta Estampada Street", "Camiseta com estampa exclusiva AZUL STREET. Design urbano e moderno.",
			"119.90", 30, "camisetas", []string{"/uploads/camiseta-street-1.jpg"}},
		{"Calça Jeans Slim", "Calça jeans slim fit com elastano. Conforto e estilo em uma peça só.",
			"189.90", 25, "calcas", []string{"/uploads/calca-jeans-1.jpg", "/uploads/calca-jeans-2.jpg"}},
		{"Calça Cargo Preta", "Calça cargo com bolsos laterais. Estilo streetwear autêntico.",
			"159.90", 40, "calcas", []string{"/uploads/calca-cargo-1.jpg"}},
		{"Vestido Midi Floral", "Vestido midi com estampa floral. Perfeito para ocasiões especiais.",
			"249.90", 15, "vestidos", []string{"/uploads/vestido-floral-1.jpg"}},
		{"Boné AZUL STREET", "Boné com logo bordado AZUL STREET. Ajuste snapback.",
			"89.90", 100, "acessorios", []string{"/uploads/bone-azul-1.jpg"}},
		{"Mochila Urban", "Mochila resistente com compartimento para notebook. Ideal para o dia a dia.",
			"199.90", 20, "acessorios", []string{"/uploads/mochila-urban-1.jpg"}},
	}
	for _, p := range products {
		if err := seedProduct(ctx, database, p.name, p.description, p.price, p.stock, categoryIDs[p.category], p.images); err != nil {
			return err
		}
	}
	return nil
}

func seedUser(ctx context.Context, database *db.DB, email, password, name string, role userdomain.Role, phone string) (*userdomain.User, error) {
	var existing userdomain.User
	err := database.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &userdomain.User{
		UserID:   uuid.NewString(),
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Role:     role,
		Phone:    phone,
	}
	if err := database.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to seed user %s: %w", email, err)
	}
	return user, nil
}

func seedCategory(ctx context.Context, database *db.DB, name, imageURL string) (*catalogdomain.Category, error) {
	slug := utils.Slugify(name)
	var existing catalogdomain.Category
	err := database.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up category %s: %w", slug, err)
	}

	category := &catalogdomain.Category{
		CategoryID: uuid.NewString(),
		Name:       name,
		Slug:       slug,
		ImageURL:   imageURL,
	}
	if err := database.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to seed category %s: %w", slug, err)
	}
	return category, nil
}

func seedProduct(ctx context.Context, database *db.DB, name, description, price string, stock int, categoryID uint, images []string) error {
	slug := utils.Slugify(name)
	var count int64
	if err := database.WithContext(ctx).Model(&catalogdomain.Product{}).
		Where("slug = ?", slug).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up product %s: %w", slug, err)
	}
	if count > 0 {
		return nil
	}

	product := &catalogdomain.Product{
		ProductID:   uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Images:      catalogdomain.ImageList(images),
		IsActive:    true,
		CategoryID:  categoryID,
	}
	if err := database.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to seed product %s: %w", slug, err)
	}
	return nil
}
