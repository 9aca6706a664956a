// Command pgnct translates the brace comments of PGN chess game files.
package main

func main() {
	execute()
}
