package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"soumiSpace/internal/auth"
	"soumiSpace/internal/config"
	"soumiSpace/internal/content"
	"soumiSpace/internal/database"
	"soumiSpace/internal/store"
)

const initialPasswordBytes = 24

func main() {
	var (
		username     = flag.String("username", "", "初始管理员用户名（与 -seed-defaults 至少提供一个）")
		seedDefaults = flag.Bool("seed-defaults", false, "为尚未保存的分区写入默认内容")
		dbHost       = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort       = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName       = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser       = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass       = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode      = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	// 登录时用户名统一转小写，这里保持一致。
	u := strings.ToLower(strings.TrimSpace(*username))
	if u == "" && !*seedDefaults {
		log.Fatal("missing required flag: --username or --seed-defaults")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	if *seedDefaults {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		seeded, err := seedDefaultSections(ctx, store.NewGormStore(db, 0))
		cancel()
		if err != nil {
			log.Fatalf("seed defaults: %v", err)
		}
		if len(seeded) == 0 {
			fmt.Println("所有分区均已存在，未写入默认内容。")
		} else {
			fmt.Printf("已写入默认分区: %s\n", strings.Join(seeded, ", "))
		}
	}

	if u == "" {
		return
	}

	password, err := createAdmin(db, u)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("已创建初始管理员账号（首次登录需强制改密）：\n")
	fmt.Printf("用户名: %s\n", u)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：请立即登录并修改密码（该密码仅显示一次）。\n")
}

// createAdmin 创建需要首次改密的账号并返回明文初始密码。
func createAdmin(db *gorm.DB, username string) (string, error) {
	var existing database.User
	switch err := db.Where("username = ?", username).First(&existing).Error; {
	case err == nil:
		return "", fmt.Errorf("user %q already exists", username)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return "", fmt.Errorf("query user: %w", err)
	}

	password, err := auth.GeneratePassword(initialPasswordBytes)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := database.User{
		Username:           username,
		PasswordHash:       hashed,
		MustChangePassword: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return password, nil
}

// seedDefaultSections 只写入存储中缺失的分区，已保存的内容保持不变。
func seedDefaultSections(ctx context.Context, st store.Store) ([]string, error) {
	rows, err := st.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sections: %w", err)
	}

	defaults := content.Defaults()
	var seeded []string
	for _, name := range defaults.Sections() {
		if _, ok := rows[name]; ok {
			continue
		}
		raw, err := defaults.Section(name)
		if err != nil {
			return seeded, err
		}
		if err := st.UpsertSection(ctx, name, raw); err != nil {
			return seeded, fmt.Errorf("upsert %s: %w", name, err)
		}
		seeded = append(seeded, name)
	}
	return seeded, nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("DB_NAME")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("DB_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("DB_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
