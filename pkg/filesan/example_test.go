package filesan_test

import (
	"fmt"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

func ExampleEscapeString() {
	fmt.Println(filesan.EscapeString("\x00hello/the_re.txt:.", '_', filesan.Unix))
	fmt.Println(filesan.EscapeString("\x00hello/the_re.txt:.", '_', filesan.Windows))
	fmt.Println(filesan.EscapeString("NUL.txt", '_', filesan.Windows))
	fmt.Println(filesan.EscapeString("..", '_', filesan.All))
	// Output:
	// _00hello_2Fthe_5Fre.txt:.
	// _00hello_2Fthe_5Fre.txt_3A_2E
	// _NUL.txt
	// _..
}

func ExampleParseMode() {
	m, err := filesan.ParseMode("unix,windows")
	if err != nil {
		panic(err)
	}
	fmt.Println(m, m.Contains(filesan.Windows), m.Intersects(filesan.Mac))
	// Output: Unix,Windows true false
}
