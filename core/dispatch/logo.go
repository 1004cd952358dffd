package dispatch

import (
	"fmt"
	"io"
)

// logoLines is the rsh splash art shown by the %logo builtin.
var logoLines = []string{
	"                                    ...................",
	"                             ..,77!                     _7!.",
	" `       `  `  `         .,7!.!       ...1.   `              .7&,   `                   `    `  `",
	"      `           `  .(7`    \\     ` .\\   ,,   `     `  `      ( .7..     `     `  `",
	"  `       `  `    .?!       ,   `    J  .: ,,    `        `     )    7i,`    `       `  `  `   `",
	"    `  `        ,^     `    ]        %, .; .,,     `        `   (       ?1,      `               `",
	" `         `  .^    `      .(  `  ` .:t .: \\ (  `    `  `        [        `?(       `   `   `",
	"      `  `  ./     `    `  ,        , -, `.`  t            `     j   `       ?,   `        `  `",
	"  `        .^   `     `    ,        ,   .J.   ,.  `   `      `   ,     `       4,     `         `",
	"    `         .   `        ,  ` `   ,.7!] r.<?~[        `        ,        `     .i      `",
	" `    `  `  t 1    `   `   ,      ` ,   ?7    `]   `      `   `  ,`  `            4.      `  `",
	"            (  5.   `    ` ,        ,. ] . 1   ]     `     `     ,     `   `       (.  `       `",
	"   `   `    ,   ?,          ) `  `   %`] ]  3  \\  `    `         ,       `   `  `   1.     `     `",
	" `       `   l    5,  `     1        ,.t t  ,./          `   `  `J `  `            .=    `    `",
	"    `          i.   ?i,  `  ,,        t  (   (  `   `           .\\        `   ` ..Z.",
	"      `   `     ,i     .7(,  1  `  `  ,+ . .?         `   `   ` ,    `       .JV",
	"                   7+.     ?i,                                 .^      `..JV7^",
	"   `                  7(,     ?=..                           :w^  ` ..wV7",
	"     `   `   `  `        7..      _71....   `      `  .........(?7&?!                         `  `",
	" `        `       `         ?7(,           _????!!``       ...?7!               `  `   `  `",
	"    `  `      `    `             ?7<<... ..       ....(?=`             `  `  `               `",
}

// WriteLogo prints the splash art, used by %logo and at session start.
func WriteLogo(w io.Writer) {
	for _, line := range logoLines {
		fmt.Fprintln(w, line)
	}
}
