// Package testcase содержит реализации по умолчанию для внешних
// коллабораторов оркестратора: генератора тест-кейсов и writer'а
// тестовых классов.
//
// NominalGenerator перечисляет операции OpenAPI спецификации и строит
// для каждой N номинальных тест-кейсов из примеров и значений по
// умолчанию схемы. GoTestWriter рендерит батч в Go тест-файл
// <targetDir>/<className>_test.go.
package testcase
