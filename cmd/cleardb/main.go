package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/samizak/ColorsAI/bootstrap"
	"github.com/samizak/ColorsAI/domain/entity"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// 清库小工具，开发环境重置数据用
// 默认按外键依赖顺序清空全部表，也可以用 -tables 指定

func main() {
	force := flag.Bool("force", false, "跳过确认提示直接执行")
	truncate := flag.Bool("truncate", false, "用 TRUNCATE 代替 DELETE（更快，重置自增 ID）")
	tables := flag.String("tables", "", "要清空的表，逗号分隔；留空清空全部")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ 未找到 .env 文件，使用系统环境变量")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("❌ DATABASE_URL 环境变量未设置")
	}

	targets := defaultTables()
	if *tables != "" {
		targets = splitTables(*tables)
	}

	if !*force && !confirm(targets) {
		fmt.Println("❌ 操作已取消")
		return
	}

	db := bootstrap.NewDatabase(dsn)

	fmt.Println("\n🚀 开始清库...")
	for _, table := range targets {
		if err := clearTable(db, table, *truncate); err != nil {
			log.Printf("❌ 清空表 %s 失败: %v", table, err)
			continue
		}
		log.Printf("✅ 已清空表: %s", table)
	}
	fmt.Println("\n🎉 清库操作完成！")
}

// defaultTables 先清引用方（favorites），再清被引用的表
func defaultTables() []string {
	return []string{
		entity.Favorite{}.TableName(),
		entity.ColoringPage{}.TableName(),
		"users",
	}
}

func splitTables(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func confirm(targets []string) bool {
	fmt.Println("⚠️  警告：此操作将删除以下表中的所有数据！")
	for _, t := range targets {
		fmt.Printf("   - %s\n", t)
	}
	fmt.Print("\n确认执行清库操作？(yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "yes" || input == "y"
}

func clearTable(db *gorm.DB, table string, truncate bool) error {
	if truncate {
		// CASCADE 顺带处理外键引用
		return db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error
	}
	return db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error
}
