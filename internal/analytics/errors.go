package analytics

import "errors"

// ErrInvalidArgument единственная ошибка движка: входные данные некорректной формы
// (разная длина массивов, отрицательное целевое количество точек).
// Пустые и вырожденные входы ошибкой не считаются.
var ErrInvalidArgument = errors.New("invalid argument")
