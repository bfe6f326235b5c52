// Package workerpool запускает блокирующую CPU-работу на фиксированном
// наборе горутин. Вызывающая сторона отправляет задачу и ждёт результат
// в собственном канале ответа.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed пул остановлен и не принимает задачи.
var ErrClosed = errors.New("worker pool is closed")

type job struct {
	fn   func() error
	done chan error
}

// Pool пул воркеров.
type Pool struct {
	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New запускает size воркеров. При size < 1 запускается один.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		jobs: make(chan job),
		quit: make(chan struct{}),
	}
	p.wg.Add(size)
	for range size {
		go p.worker()
	}
	return p
}

// Do выполняет fn на одном из воркеров и возвращает её ошибку.
//
// Если ctx отменён до того, как задачу взял воркер, fn не выполняется.
// Если ctx отменён во время выполнения, Do возвращает ctx.Err(), а fn
// дорабатывает в фоне.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	j := job{fn: fn, done: make(chan error, 1)}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrClosed
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close останавливает воркеры и ждёт их завершения.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobs:
			j.done <- run(j.fn)
		case <-p.quit:
			return
		}
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return fn()
}
