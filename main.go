package main

import "Gin_postgres_redis_library/cli"

func main() {
	cli.Execute()
}
