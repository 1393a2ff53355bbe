// Package parser provides parsing functionality for mig definition files.
//
// A definitions file is a sequence of records separated by a line containing
// exactly "---". Each record describes one test case:
//
//	TestCase: Get items
//	Method: GET
//	URL: https://api.example.com/items
//	StatusCode: 200
//	Headers:
//	  Accept: application/json
//	Assertions:
//	  JSONPathExists: $.data.items
//	  JSONPathValue: $.data.items[0].id == 123
//	  HeaderValue: Content-Type == application/json
//
// The parser handles:
//   - Top-level scalar keys (TestCase, Description, Author, Method, URL, StatusCode)
//   - Indented Headers, Payload and Assertions blocks
//   - Comment lines starting with #
//   - Typed literals (integer, float, quoted string, boolean) in comparisons
//
// Parsing is fail-fast: the first malformed record aborts the whole file with
// a *ParseError. A malformed JSON path does not abort parsing; it is attached
// to its test case as a *ConfigError.
package parser
