// Package fuzztests houses Go fuzz harnesses that exercise the document
// pipeline (bytes -> decode -> check). Its goal is to smoke test robustness
// and guard against panics or allocator explosions on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые декодируют байты как
// описание программы и прогоняют его через проверку.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/program, internal/checker,
// internal/diag.
package fuzztests
