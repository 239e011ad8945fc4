package main

import "github.com/samandartukhtayev/graphql-user-service/cmd"

func main() {
	cmd.Execute()
}
